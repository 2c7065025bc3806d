package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koba/ddl2ts/internal/dialect"
	"github.com/koba/ddl2ts/internal/diff"
	"github.com/koba/ddl2ts/internal/schema"
	"github.com/koba/ddl2ts/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <input>",
	Short: "Store the extracted schema of a DDL file",
	Long:  `Extract the tables of a DDL file and store them in a SQLite snapshot for later diffs.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshot,
}

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare the declarations of two schemas",
	Long: `Compare two schemas and display the changes to the generated declarations.

Each side is a DDL file or a snapshot created by the snapshot command. Without
--dialect, the dialect recorded in a snapshot is used, falling back to mysql.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var snapshotOutput string

func init() {
	addDialectFlag(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOutput, "output", "o", "", `Snapshot file (default "<input>.db")`)

	addDialectFlag(diffCmd)
	diffCmd.Flags().StringArrayVar(&typeMap, "type-map", nil, "Map a raw type to a TypeScript type, as type=tstype (repeatable)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	input := args[0]
	src, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	d, err := dialect.Lookup(dialectName)
	if err != nil {
		return err
	}
	found := d.Tables(src, logger)

	path := snapshotOutput
	if path == "" {
		path = snapshotPath(input)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Creating snapshot: %s\n", path)
	s := snapshot.New(d.Name, input, src, found)
	if err := snapshot.Save(cmd.Context(), s, path); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Snapshot created successfully: %s (%d tables)\n", path, len(found))
	return nil
}

func snapshotPath(input string) string {
	if input == "-" {
		return "schema.db"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".db"
}

// side is one input of a diff. Snapshots arrive with their tables and
// dialect; DDL files have neither until the dialect is chosen.
type side struct {
	snapshot bool
	tables   []*schema.Table
	dialect  string
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var sides [2]*side
	for i, path := range args {
		fmt.Fprintf(out, "Loading: %s\n", path)
		s, err := loadSide(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		sides[i] = s
	}

	name := dialectName
	if !cmd.Flags().Changed("dialect") {
		for _, s := range sides {
			if s.dialect != "" {
				name = s.dialect
				break
			}
		}
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return err
	}

	// DDL sides are extracted once the dialect is known.
	for i, path := range args {
		if sides[i].snapshot {
			continue
		}
		src, err := readInput(cmd, path)
		if err != nil {
			return err
		}
		sides[i].tables = d.Tables(src, logger)
	}

	overrides, err := parseTypeMap(typeMap)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n=== Comparing %s declarations ===\n\n", d.Name)
	result := diff.Compare(sides[0].tables, sides[1].tables, diff.Types(d, overrides))
	diff.Display(out, result)
	return nil
}

func loadSide(ctx context.Context, path string) (*side, error) {
	if path == "-" || !snapshot.IsSnapshot(path) {
		return &side{}, nil
	}
	s, err := snapshot.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return &side{snapshot: true, tables: s.Tables, dialect: s.Metadata.Dialect}, nil
}
