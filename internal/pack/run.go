// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/aibor/assetpack/internal/archive"
	"github.com/aibor/assetpack/internal/minify"
	"golang.org/x/sync/errgroup"
)

// run is the state of a single [Packager.Run].
type run struct {
	root     string
	excludes ExclusionSet
	registry *minify.Registry
	policy   minify.FailurePolicy
	writer   *archive.SyncWriter
	console  *Console
	logger   *slog.Logger

	// Directory scans only list entries and spawn tasks. They are tracked
	// apart from the task group, so a task limit can never block a scan
	// that is needed for the tasks to make progress.
	scans sync.WaitGroup
	tasks *errgroup.Group

	added   atomic.Int64
	skipped atomic.Int64

	mu       sync.Mutex
	failures []*TaskError
}

// walk scans the root directory and processes all files found. It returns
// once all scans and tasks are done. Only fatal errors are returned. Task
// failures are collected in r.failures.
func (r *run) walk(ctx context.Context, jobs int) error {
	tasks, taskCtx := errgroup.WithContext(ctx)
	if jobs > 0 {
		tasks.SetLimit(jobs)
	}

	r.tasks = tasks

	r.scans.Add(1)
	go r.scan(taskCtx, ".")

	r.scans.Wait()

	err := r.tasks.Wait()
	if err != nil {
		return err //nolint:wrapcheck
	}

	// Scans stop silently on cancellation.
	return ctx.Err() //nolint:wrapcheck
}

// scan lists the given directory and dispatches all entries that are not
// excluded. Sub-directories are scanned in their own goroutines.
func (r *run) scan(ctx context.Context, dir string) {
	defer r.scans.Done()

	entries, err := os.ReadDir(r.abs(dir))
	if err != nil {
		r.fail(dir, err)
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}

		name := path.Join(dir, entry.Name())

		if r.excludes.Contains(name) {
			r.skipped.Add(1)
			r.console.Skipping(name)

			continue
		}

		r.console.Adding(name)

		if entry.IsDir() {
			r.scans.Add(1)
			go r.scan(ctx, name)

			continue
		}

		r.tasks.Go(func() error {
			return r.process(ctx, name)
		})
	}
}

// process adds a single file to the archive. Only archive write errors are
// returned, as they are fatal for the whole run.
func (r *run) process(ctx context.Context, name string) error {
	err := ctx.Err()
	if err != nil {
		return err //nolint:wrapcheck
	}

	transform, minifiable := r.registry.Lookup(path.Ext(name))
	if minifiable {
		err = r.writeTransformed(ctx, name, transform)
	} else {
		err = r.writeRaw(name)
	}

	if err == nil {
		r.added.Add(1)
		return nil
	}

	var writeErr *archive.WriteError
	if errors.As(err, &writeErr) {
		r.logger.Error("archive write failed",
			slog.String("path", name),
			slog.Any("error", err),
		)

		return err
	}

	r.fail(name, err)

	return nil
}

// writeRaw writes the file as it is. Mode and modification time are kept.
func (r *run) writeRaw(name string) error {
	file, err := os.Open(r.abs(name))
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer file.Close()

	return r.writer.WriteFile(name, file) //nolint:wrapcheck
}

// writeTransformed writes the transformed file content. If the transform
// fails and the policy allows it, the original content is written instead.
func (r *run) writeTransformed(
	ctx context.Context,
	name string,
	transform minify.Transform,
) error {
	data, err := readRegular(r.abs(name))
	if err != nil {
		return err
	}

	minified, err := transform(ctx, data)
	if err != nil {
		if r.policy != minify.FailurePolicyFallback {
			return fmt.Errorf("minify: %w", err)
		}

		r.logger.Warn("minify failed, adding original content",
			slog.String("path", name),
			slog.Any("error", err),
		)

		minified = data
	}

	return r.writer.WriteBlob(name, minified) //nolint:wrapcheck
}

// fail records a task failure.
func (r *run) fail(name string, err error) {
	r.logger.Debug("entry failed",
		slog.String("path", name),
		slog.Any("error", err),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, &TaskError{Path: name, Err: err})
}

func (r *run) abs(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(name))
}

// readRegular reads the whole file. Symbolic links are followed, but the
// final target must be a regular file.
func readRegular(name string) ([]byte, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if !info.Mode().IsRegular() {
		return nil, archive.ErrNotRegularFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return data, nil
}
