// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	envArgsName     = "ASSETPACK_ARGS"
	localConfigFile = ".assetpack-args"
)

// EnvArgs returns assetpack arguments from the environment.
func EnvArgs() []string {
	return strings.Fields(os.Getenv(envArgsName))
}

// LocalConfigArgs returns assetpack arguments from a local config file.
//
// The file's format is one argument per line. Environment variables may be used
// and are expanded with [os.ExpandEnv].
func LocalConfigArgs(fsys fs.FS, file string) ([]string, error) {
	conf, err := fs.ReadFile(fsys, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read file: %w", err)
	}

	args := []string{}

	expandedConf := os.ExpandEnv(string(conf))
	for line := range strings.SplitSeq(expandedConf, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			args = append(args, line)
		}
	}

	return args, nil
}

// MergedArgs prepends the arguments from the local config file and the
// environment to the given command line arguments. Later arguments take
// precedence, so the order is file, environment, command line.
func MergedArgs(args []string, fsys fs.FS, file string) ([]string, error) {
	localArgs, err := LocalConfigArgs(fsys, file)
	if err != nil {
		return nil, &ParseArgsError{msg: "local config " + file, err: err}
	}

	envArgs := EnvArgs()

	merged := make([]string, 0, len(localArgs)+len(envArgs)+len(args))
	merged = append(merged, localArgs...)
	merged = append(merged, envArgs...)
	merged = append(merged, args...)

	return merged, nil
}
