// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aibor/assetpack/internal/archive"
	"github.com/aibor/assetpack/internal/minify"
	"github.com/aibor/assetpack/internal/pack"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

const (
	defaultOutputDir     = "build"
	defaultOutputName    = "build"
	defaultRemoteRetries = 2
	defaultRemoteTimeout = 30 * time.Second
	remoteRetryDelay     = time.Second
)

type flags struct {
	root              string
	output            string
	format            archive.Format
	jobs              int
	excludes          []string
	noDefaultExcludes bool
	noMinify          bool
	remoteJS          bool
	remoteURL         string
	remoteRetries     int
	remoteTimeout     time.Duration
	onError           minify.FailurePolicy
	quiet             bool
	debug             bool
}

func newFlags() *flags {
	return &flags{
		root:          ".",
		format:        archive.FormatZip,
		remoteURL:     minify.DefaultRemoteURL,
		remoteRetries: defaultRemoteRetries,
		remoteTimeout: defaultRemoteTimeout,
		onError:       minify.FailurePolicyAbort,
	}
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(
		&f.root,
		"root",
		"C",
		f.root,
		"project directory to pack",
	)

	fs.StringVarP(
		&f.output,
		"output",
		"o",
		f.output,
		"archive file path (default <root>/build/build.<format>)",
	)

	fs.Var(
		&f.format,
		"format",
		"archive format: zip, cpio, cpio.lz4",
	)

	fs.IntVarP(
		&f.jobs,
		"jobs",
		"j",
		f.jobs,
		"maximum number of files processed concurrently, 0 for no limit",
	)

	fs.StringSliceVarP(
		&f.excludes,
		"exclude",
		"x",
		f.excludes,
		"path relative to the root to exclude. Flag may be used more than once.",
	)

	fs.BoolVar(
		&f.noDefaultExcludes,
		"no-default-excludes",
		f.noDefaultExcludes,
		"do not exclude the default paths",
	)

	fs.BoolVar(
		&f.noMinify,
		"no-minify",
		f.noMinify,
		"add all files as they are",
	)

	fs.BoolVar(
		&f.remoteJS,
		"remote-js",
		f.remoteJS,
		"minify scripts by the remote service instead of locally",
	)

	fs.StringVar(
		&f.remoteURL,
		"remote-url",
		f.remoteURL,
		"URL of the remote script minifier",
	)

	fs.IntVar(
		&f.remoteRetries,
		"remote-retries",
		f.remoteRetries,
		"additional attempts for failed remote minification",
	)

	fs.DurationVar(
		&f.remoteTimeout,
		"remote-timeout",
		f.remoteTimeout,
		"timeout for a single remote minification attempt",
	)

	fs.Var(
		&f.onError,
		"on-error",
		"handling of minification errors: abort, fallback",
	)

	fs.BoolVarP(
		&f.quiet,
		"quiet",
		"q",
		f.quiet,
		"do not print progress notices",
	)

	fs.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)
}

func (f *flags) validate() error {
	if f.jobs < 0 {
		return &ParseArgsError{
			msg: fmt.Sprintf("jobs %d", f.jobs),
			err: ErrValueOutOfRange,
		}
	}

	if f.remoteRetries < 0 {
		return &ParseArgsError{
			msg: fmt.Sprintf("remote retries %d", f.remoteRetries),
			err: ErrValueOutOfRange,
		}
	}

	return nil
}

func (f *flags) outputPath() string {
	if f.output != "" {
		return f.output
	}

	return filepath.Join(
		f.root,
		defaultOutputDir,
		defaultOutputName+f.format.Extension(),
	)
}

func (f *flags) exclusionSet() pack.ExclusionSet {
	excludes := pack.NewExclusionSet(f.excludes...)
	if !f.noDefaultExcludes {
		excludes.Add(pack.DefaultExcludes...)
	}

	return excludes
}

func (f *flags) registry(logger *slog.Logger) (*minify.Registry, error) {
	if f.noMinify {
		return minify.NewRegistry(nil) //nolint:wrapcheck
	}

	script := minify.Script()

	if f.remoteJS {
		remote := &minify.RemoteScript{
			URL:        f.remoteURL,
			Retries:    f.remoteRetries,
			RetryDelay: remoteRetryDelay,
			Timeout:    f.remoteTimeout,
			Logger:     logger,
		}
		script = remote.Transform
	}

	return minify.NewRegistry(minify.Builtins(script)) //nolint:wrapcheck
}

func (f *flags) packager(console *pack.Console) (*pack.Packager, error) {
	runID := uuid.NewString()
	logger := slog.Default()

	registry, err := f.registry(logger.With(slog.String("run_id", runID)))
	if err != nil {
		return nil, fmt.Errorf("transform registry: %w", err)
	}

	return &pack.Packager{
		RunID:    runID,
		Root:     f.root,
		Output:   f.outputPath(),
		Format:   f.format,
		Excludes: f.exclusionSet(),
		Registry: registry,
		Policy:   f.onError,
		Jobs:     f.jobs,
		Console:  console,
		Logger:   logger,
	}, nil
}
