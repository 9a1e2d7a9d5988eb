// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pack

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOutput is returned if no output path is given.
	ErrNoOutput = errors.New("no output path given")

	// ErrRootNotDirectory is returned if the project root is not a
	// directory.
	ErrRootNotDirectory = errors.New("not a directory")
)

// TaskError records an error and the entry path that caused it.
type TaskError struct {
	Path string
	Err  error
}

// Error implements the [error] interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// RunError is returned if any entry could not be added to the archive. The
// archive is complete for all other entries.
type RunError struct {
	Failures []*TaskError
}

// Error implements the [error] interface.
func (e *RunError) Error() string {
	if len(e.Failures) == 1 {
		return "1 entry failed"
	}

	return fmt.Sprintf("%d entries failed", len(e.Failures))
}

// Is implements the [errors.Is] interface.
func (*RunError) Is(other error) bool {
	_, ok := other.(*RunError)
	return ok
}

// Unwrap returns the errors of all failed entries.
func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for idx, failure := range e.Failures {
		errs[idx] = failure
	}

	return errs
}

// Paths returns the paths of all failed entries.
func (e *RunError) Paths() []string {
	paths := make([]string, len(e.Failures))
	for idx, failure := range e.Failures {
		paths[idx] = failure.Path
	}

	return paths
}
