// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import "io/fs"

// Writer defines the archive writer interface.
type Writer interface {
	// WriteFile copies the existing file from source into the archive. File
	// mode and modification time are taken from the source.
	WriteFile(name string, source fs.File) error
	// WriteBlob adds the given data as regular file entry.
	WriteBlob(name string, data []byte) error
	// Close finalizes the archive. No writes are possible afterwards.
	Close() error
}
