package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/koba/ddl2ts/internal/config"
	"github.com/koba/ddl2ts/internal/runner"
)

var (
	configPath string
	workers    int
	watch      bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run every job of a project file",
	Long: `Generate declarations for every job listed in a ddl2ts.yaml project file.

Jobs run in parallel. Outputs whose content did not change are left untouched.
With --watch, a job is rebuilt whenever its input changes.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Project file")
	buildCmd.Flags().IntVar(&workers, "workers", 0, "Parallel jobs (default: number of CPUs)")
	buildCmd.Flags().BoolVar(&watch, "watch", false, "Rebuild jobs when their input changes")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	r := runner.New(cfg).WithWorkers(workers).WithLogger(logger)
	out := cmd.OutOrStdout()

	results, err := r.Run(cmd.Context())
	for _, res := range results {
		if res.Status != "" {
			printResult(out, res)
		}
	}
	m := r.Metrics()
	fmt.Fprintf(out, "Built %d jobs: %d written, %d unchanged, %d empty, %d failed (%s written)\n",
		m.Jobs, m.Written, m.Unchanged, m.Empty, m.Failed, humanize.Bytes(uint64(m.BytesWritten)))

	if !watch {
		return err
	}
	if err != nil {
		logger.Error("initial build failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	fmt.Fprintln(out, "Watching for changes (Ctrl+C to stop)...")
	return r.Watch(ctx, func(res runner.Result, err error) {
		if err != nil {
			fmt.Fprintf(out, "error     %v\n", err)
			return
		}
		printResult(out, res)
	})
}

func printResult(w io.Writer, res runner.Result) {
	switch res.Status {
	case runner.StatusEmpty:
		fmt.Fprintf(w, "%-9s %s: no table found\n", res.Status, res.Input)
	case runner.StatusWritten:
		fmt.Fprintf(w, "%-9s %s -> %s (%s)\n", res.Status, res.Input, res.Output, humanize.Bytes(uint64(res.Bytes)))
	default:
		fmt.Fprintf(w, "%-9s %s -> %s\n", res.Status, res.Input, res.Output)
	}
}
