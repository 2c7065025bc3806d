package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/koba/ddl2ts/internal/config"
)

// Watch rebuilds a job whenever its input is written or re-created, and
// calls report with the outcome. It blocks until ctx is done.
//
// Directories are watched instead of files, so editors that save by
// renaming a temp file over the input are still seen.
func (r *Runner) Watch(ctx context.Context, report func(Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	jobs := make(map[string][]*config.Job)
	dirs := make(map[string]bool)
	for i := range r.cfg.Jobs {
		j := &r.cfg.Jobs[i]
		input, err := filepath.Abs(j.Input)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", j.Input, err)
		}
		jobs[input] = append(jobs[input], j)
		dirs[filepath.Dir(input)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	r.log.Info("watching inputs", "jobs", len(r.cfg.Jobs), "dirs", len(dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			for _, j := range jobs[name] {
				r.log.Debug("input changed", "input", j.Input, "op", event.Op.String())
				report(r.RunJob(ctx, j))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error", "error", err)
		}
	}
}
