package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koba/ddl2ts/internal/dialect"
)

var (
	verbose bool
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ddl2ts <input>",
	Short: "Generate TypeScript declarations from DDL",
	Long: `Generate TypeScript declarations from SQL DDL or Cypher.

Each CREATE TABLE (or graph label) becomes an interface whose properties
follow the column types of the chosen dialect.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runGenerate(cmd, args)
	},
}

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List supported dialects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range dialect.Names() {
			d, err := dialect.Lookup(name)
			if err != nil {
				return err
			}
			if len(d.Aliases) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (aliases: %s)\n", name, strings.Join(d.Aliases, ", "))
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log skipped statements and lines")
	addDialectFlag(rootCmd)
	addOutputFlags(rootCmd)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(introspectCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(dialectsCmd)
}
