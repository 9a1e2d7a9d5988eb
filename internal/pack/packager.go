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
	"path/filepath"

	"github.com/aibor/assetpack/internal/archive"
	"github.com/aibor/assetpack/internal/minify"
	"github.com/google/uuid"
)

const outputDirMode = 0o755

// Packager packs the content of a project directory into a single archive.
type Packager struct {
	// RunID identifies the run in logs and the [Summary]. A random ID is
	// used if empty.
	RunID string

	// Root is the project directory to pack.
	Root string

	// Output is the path of the archive file. Missing parent directories are
	// created. An existing file is truncated.
	Output string

	// Format is the archive format. Defaults to [archive.FormatZip].
	Format archive.Format

	// Excludes are paths relative to Root that are skipped. The output
	// archive is excluded in addition, if it is inside Root. Its directory
	// is not.
	Excludes ExclusionSet

	// Registry maps file name extensions to transforms. Files without a
	// transform are written as they are. A nil Registry disables all
	// transforms.
	Registry *minify.Registry

	// Policy defines how transform errors are handled. Defaults to
	// [minify.FailurePolicyAbort].
	Policy minify.FailurePolicy

	// Jobs limits the number of files processed concurrently. Zero or less
	// means no limit.
	Jobs int

	// Console receives progress notices and the summary. Nil discards them.
	Console *Console

	// Logger is used for diagnostic logging. Defaults to [slog.Default].
	Logger *slog.Logger
}

// Run packs all files of the project directory. The archive is closed and
// kept in any case.
//
// If some entries could not be added, the [Summary] is returned along with a
// [RunError]. Any other error is returned alone.
func (p *Packager) Run(ctx context.Context) (*Summary, error) {
	if p.Output == "" {
		return nil, ErrNoOutput
	}

	format := p.Format
	if format == "" {
		format = archive.FormatZip
	}

	policy := p.Policy
	if policy == "" {
		policy = minify.FailurePolicyAbort
	}

	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("run_id", runID))

	info, err := os.Stat(p.Root)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s: %w", p.Root, ErrRootNotDirectory)
	}

	excludes, err := p.exclusions()
	if err != nil {
		return nil, err
	}

	logger.Debug("start run",
		slog.String("root", p.Root),
		slog.String("output", p.Output),
		slog.String("format", format.String()),
		slog.Any("excludes", excludes.Paths()),
		slog.Any("transforms", p.Registry.Extensions()),
		slog.Int("jobs", p.Jobs),
	)

	err = os.MkdirAll(filepath.Dir(p.Output), outputDirMode)
	if err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(p.Output)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	writer, err := format.NewWriter(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open archive writer: %w", err)
	}

	r := &run{
		root:     p.Root,
		excludes: excludes,
		registry: p.Registry,
		policy:   policy,
		writer:   archive.NewSyncWriter(writer),
		console:  p.Console,
		logger:   logger,
	}

	runErr := r.walk(ctx, p.Jobs)

	err = closeArchive(r.writer, file)
	if err != nil {
		return nil, errors.Join(runErr, err)
	}

	if runErr != nil {
		return nil, runErr
	}

	summary, err := p.summarize(runID, r)
	if err != nil {
		return nil, err
	}

	logger.Debug("run finished",
		slog.Int64("added", summary.Added),
		slog.Int64("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
	)

	summary.Print(p.Console)

	if len(r.failures) > 0 {
		return summary, &RunError{Failures: r.failures}
	}

	return summary, nil
}

// exclusions returns a copy of the configured exclusion set extended by the
// output paths that are inside the project root.
func (p *Packager) exclusions() (ExclusionSet, error) {
	excludes := NewExclusionSet(p.Excludes.Paths()...)

	root, err := filepath.Abs(p.Root)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}

	output, err := filepath.Abs(p.Output)
	if err != nil {
		return nil, fmt.Errorf("output path: %w", err)
	}

	rel, err := filepath.Rel(root, output)
	if err == nil && filepath.IsLocal(rel) {
		excludes.Add(filepath.ToSlash(rel))
	}

	return excludes, nil
}

func (p *Packager) summarize(runID string, r *run) (*Summary, error) {
	info, err := os.Stat(p.Output)
	if err != nil {
		return nil, fmt.Errorf("archive size: %w", err)
	}

	projectSize, err := DirSize(p.Root)
	if err != nil {
		return nil, fmt.Errorf("project size: %w", err)
	}

	return &Summary{
		RunID:       runID,
		Archive:     p.Output,
		ArchiveSize: info.Size(),
		ProjectSize: projectSize,
		Added:       r.added.Load(),
		Skipped:     r.skipped.Load(),
		Failed:      len(r.failures),
	}, nil
}

func closeArchive(writer io.Closer, file *os.File) error {
	var errs []error

	err := writer.Close()
	if err != nil {
		errs = append(errs, err)
	}

	err = file.Close()
	if err != nil {
		errs = append(errs, &archive.WriteError{Err: err})
	}

	return errors.Join(errs...)
}
