package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koba/ddl2ts/internal/database"
	"github.com/koba/ddl2ts/internal/dialect"
	"github.com/koba/ddl2ts/internal/generator"
)

var (
	dbType        string
	dsn           string
	tables        []string
	introspectDDL bool
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Generate declarations from a live database",
	Long: `Read table definitions from a live database and generate declarations.

Connection settings come from DB_TYPE, DB_HOST, DB_PORT, DB_NAME, DB_USER,
DB_PASSWORD, DB_DSN and DB_SCHEMA; --type and --dsn override them.`,
	Args: cobra.NoArgs,
	RunE: runIntrospect,
}

func init() {
	introspectCmd.Flags().StringVar(&dbType, "type", "", "Database type: mysql, postgres, sqlite or sqlserver")
	introspectCmd.Flags().StringVar(&dsn, "dsn", "", "Connection string, or the file path for sqlite")
	introspectCmd.Flags().StringSliceVar(&tables, "tables", nil, "Comma-separated list of tables (default: all tables)")
	introspectCmd.Flags().BoolVar(&introspectDDL, "ddl", false, "Print the catalog as DDL instead of declarations")
	addOutputFlags(introspectCmd)
}

func runIntrospect(cmd *cobra.Command, args []string) error {
	cfg, err := connectionConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	ctx := cmd.Context()
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	found, err := database.Introspect(ctx, db, tables)
	if err != nil {
		return err
	}
	logger.Debug("introspected tables", "type", cfg.Flavor(), "count", len(found))

	ddl := generator.NewDDLGenerator(cfg.Flavor()).Generate(found)
	if introspectDDL {
		path := output
		if path == "" {
			path = "-"
		}
		return writeOutput(cmd, path, ddl)
	}

	opts, err := generateOptions()
	if err != nil {
		return err
	}
	out, err := dialect.Generate(cfg.Dialect(), ddl, opts...)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No table found in database.")
		return nil
	}
	return writeOutput(cmd, outputPath(cfg.Dialect()), out)
}

// connectionConfig reads the environment and applies --type and --dsn on
// top. With --dsn the environment may be incomplete.
func connectionConfig() (database.Config, error) {
	cfg, err := database.LoadConfigFromEnv()
	if dbType == "" && dsn == "" {
		return cfg, err
	}
	if err != nil {
		cfg = database.Config{}
	}
	if dbType != "" {
		cfg.Type = dbType
	}
	if dsn != "" {
		cfg.DSN = dsn
	}

	switch {
	case cfg.Type == "":
		return cfg, errors.New("database type is required (--type or DB_TYPE)")
	case cfg.Flavor() == "":
		return cfg, fmt.Errorf("unsupported database type: %s", cfg.Type)
	case cfg.DSN == "" && cfg.Database == "":
		return cfg, errors.New("connection is required (--dsn, DB_DSN or DB_NAME)")
	}
	return cfg, nil
}
