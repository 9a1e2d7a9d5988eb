// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/aibor/assetpack/internal/pack"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

const (
	name = "assetpack"

	exitCodeTaskFailures = 1
	exitCodeError        = -1

	longDescription = `assetpack walks a project directory, minifies scripts, stylesheets and
markup and writes everything that is not excluded into a single archive.

All flags can also be provided via environment variable ASSETPACK_ARGS:
	ASSETPACK_ARGS="--format=cpio.lz4 --debug" assetpack

All flags can also be provided via file ./.assetpack-args, with one
argument per line. Precedence is file, environment, command line.`
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func newRootCmd(cfg IO) *cobra.Command {
	flags := newFlags()

	cmd := &cobra.Command{
		Use:   name + " [flags...]",
		Short: "Minify and pack a project directory into a single archive",
		Long:  longDescription,
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			setupLogging(cfg.Stderr, flags.debug)
			return flags.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags, cfg)
		},
		SilenceUsage: true,
	}

	cmd.SetIn(cfg.Stdin)
	cmd.SetOut(cfg.Stdout)
	cmd.SetErr(cfg.Stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ParseArgsError{msg: "flag parse", err: err}
	})

	flags.register(cmd.Flags())

	return cmd
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	console := pack.NewConsole(cfg.Stdout, flags.quiet)

	packager, err := flags.packager(console)
	if err != nil {
		return err
	}

	_, err = packager.Run(ctx)

	var runErr *pack.RunError
	if errors.As(err, &runErr) {
		for _, failure := range runErr.Failures {
			console.Printf("Failed %s: %v\n", failure.Path, failure.Err)
		}
	}

	return err //nolint:wrapcheck
}

func handleRunError(err error) int {
	if err == nil {
		return 0
	}

	// Failed entries have been printed already. The archive is complete
	// otherwise.
	if errors.Is(err, &pack.RunError{}) {
		return exitCodeTaskFailures
	}

	slog.Debug("Run failed", slog.Any("error", err))

	return exitCodeError
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, false)

	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		slog.Error(err.Error())
		return exitCodeError
	}

	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)

	err = fang.Execute(ctx, cmd, fang.WithVersion(buildVersion()))

	return handleRunError(err)
}
