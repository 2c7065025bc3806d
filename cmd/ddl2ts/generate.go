package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/koba/ddl2ts/internal/dialect"
)

var (
	dialectName string
	output      string
	namespace   string
	singular    bool
	typeMap     []string
)

var generateCmd = &cobra.Command{
	Use:   "generate <input>",
	Short: "Generate declarations from a DDL file",
	Long:  `Generate TypeScript declarations from a DDL file, or from stdin when input is "-".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	addDialectFlag(generateCmd)
	addOutputFlags(generateCmd)
}

func addDialectFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&dialectName, "dialect", "d", "mysql", "Input dialect, see ddl2ts dialects")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default "<dialect>.d.ts")`)
	cmd.Flags().StringVar(&namespace, "namespace", "", "Wrap declarations in declare namespace")
	cmd.Flags().BoolVar(&singular, "singular", false, "Use singular interface names")
	cmd.Flags().StringArrayVar(&typeMap, "type-map", nil, "Map a raw type to a TypeScript type, as type=tstype (repeatable)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	src, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	opts, err := generateOptions()
	if err != nil {
		return err
	}

	out, err := dialect.Generate(dialectName, src, opts...)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No table found in SQL input.")
		return nil
	}

	return writeOutput(cmd, outputPath(dialectName), out)
}

func generateOptions() ([]dialect.Option, error) {
	overrides, err := parseTypeMap(typeMap)
	if err != nil {
		return nil, err
	}
	return []dialect.Option{
		dialect.WithNamespace(namespace),
		dialect.WithSingular(singular),
		dialect.WithTypeOverrides(overrides),
		dialect.WithLogger(logger),
	}, nil
}

// parseTypeMap turns type=tstype pairs into an override map keyed by the
// lower-cased type.
func parseTypeMap(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("invalid --type-map %q: expected type=tstype", pair)
		}
		overrides[strings.ToLower(k)] = v
	}
	return overrides, nil
}

func outputPath(tag string) string {
	if output != "" {
		return output
	}
	return strings.ToLower(tag) + ".d.ts"
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(b), nil
}

func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "-" {
		_, err := io.WriteString(cmd.OutOrStdout(), content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", path, humanize.Bytes(uint64(len(content))))
	return nil
}
