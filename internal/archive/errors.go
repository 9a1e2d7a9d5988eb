// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRegularFile is returned if the source is not a regular file.
	ErrNotRegularFile = errors.New("source is not a regular file")

	// ErrEntryExists is returned if an entry with the same name has been
	// written already.
	ErrEntryExists = errors.New("archive entry already exists")

	// ErrWriterClosed is returned on writes after the writer was closed.
	ErrWriterClosed = errors.New("archive writer closed")

	// ErrFormatInvalid is returned for unknown archive formats.
	ErrFormatInvalid = errors.New("invalid archive format")
)

// WriteError wraps errors of the underlying archive writer. Once it occurred,
// the archive must be considered broken.
type WriteError struct {
	Name string
	Err  error
}

// Error implements the [error] interface.
func (e *WriteError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("archive: %v", e.Err)
	}

	return fmt.Sprintf("archive entry %s: %v", e.Name, e.Err)
}

// Is implements the [errors.Is] interface.
func (*WriteError) Is(other error) bool {
	_, ok := other.(*WriteError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *WriteError) Unwrap() error {
	return e.Err
}
