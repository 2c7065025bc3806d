// Package runner executes the jobs of a project file in parallel and
// keeps their outputs up to date.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/koba/ddl2ts/internal/config"
	"github.com/koba/ddl2ts/internal/dialect"
)

// JobError reports the failure of one job.
type JobError struct {
	Input string
	Err   error
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("failed to build %s: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *JobError) Unwrap() error {
	return e.Err
}

// Status is the outcome of a job that did not fail.
type Status string

const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
	StatusEmpty     Status = "empty" // no table found, nothing written
)

// Result describes one finished job.
type Result struct {
	Input  string
	Output string
	Status Status
	Bytes  int
}

// Metrics tracks build totals across runs.
type Metrics struct {
	Jobs         int
	Written      int
	Unchanged    int
	Empty        int
	Failed       int
	BytesWritten int64
}

// Runner builds the jobs of a project file.
type Runner struct {
	cfg     *config.Config
	workers int
	log     *slog.Logger

	mu      sync.Mutex
	metrics Metrics
}

// New creates a runner for cfg using one worker per CPU.
func New(cfg *config.Config) *Runner {
	return &Runner{
		cfg:     cfg,
		workers: runtime.GOMAXPROCS(0),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithWorkers sets the number of parallel workers.
func (r *Runner) WithWorkers(n int) *Runner {
	if n > 0 {
		r.workers = n
	}
	return r
}

// WithLogger sets the logger passed down to generation.
func (r *Runner) WithLogger(log *slog.Logger) *Runner {
	if log != nil {
		r.log = log
	}
	return r
}

// Metrics returns a copy of the accumulated metrics.
func (r *Runner) Metrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

// Run builds every job. All jobs run even when some fail; the returned
// error joins one JobError per failure. Results keep the job order and
// hold the zero Result for failed jobs.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(r.cfg.Jobs))
	errs := make([]error, len(r.cfg.Jobs))

	var eg errgroup.Group
	eg.SetLimit(r.workers)
	for i := range r.cfg.Jobs {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &JobError{Input: r.cfg.Jobs[i].Input, Err: err}
				return nil
			}
			results[i], errs[i] = r.RunJob(ctx, &r.cfg.Jobs[i])
			return nil
		})
	}
	_ = eg.Wait()

	return results, errors.Join(errs...)
}

// RunJob builds a single job. Failures are returned as *JobError.
func (r *Runner) RunJob(ctx context.Context, j *config.Job) (Result, error) {
	res, err := r.runJob(ctx, j)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.Jobs++
	if err != nil {
		r.metrics.Failed++
		r.log.Error("job failed", "input", j.Input, "error", err)
		return Result{}, &JobError{Input: j.Input, Err: err}
	}
	switch res.Status {
	case StatusWritten:
		r.metrics.Written++
		r.metrics.BytesWritten += int64(res.Bytes)
	case StatusUnchanged:
		r.metrics.Unchanged++
	case StatusEmpty:
		r.metrics.Empty++
	}
	r.log.Info("job finished", "input", j.Input, "output", res.Output, "status", res.Status)
	return res, nil
}

func (r *Runner) runJob(ctx context.Context, j *config.Job) (Result, error) {
	res := Result{Input: j.Input, Output: j.Output}

	src, err := os.ReadFile(j.Input)
	if err != nil {
		return res, fmt.Errorf("failed to read input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	opts := append(j.Options(), dialect.WithLogger(r.log))
	out, err := dialect.Generate(j.Dialect, string(src), opts...)
	if err != nil {
		return res, err
	}
	if out == "" {
		res.Status = StatusEmpty
		return res, nil
	}
	res.Bytes = len(out)

	unchanged, err := sameContent(j.Output, out)
	if err != nil {
		return res, err
	}
	if unchanged {
		res.Status = StatusUnchanged
		return res, nil
	}

	if err := os.MkdirAll(filepath.Dir(j.Output), 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(j.Output, []byte(out), 0o644); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	res.Status = StatusWritten
	return res, nil
}

// sameContent compares the xxh3 hash of the file at path with that of out.
// A missing file is never the same.
func sameContent(path, out string) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read existing output: %w", err)
	}
	return len(existing) == len(out) && xxh3.Hash(existing) == xxh3.HashString(out), nil
}
