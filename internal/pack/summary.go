// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pack

import (
	"io/fs"
	"math"
	"path/filepath"
)

const summarySeparator = "===================="

// Summary describes a finished run.
type Summary struct {
	RunID string

	// Archive is the path of the archive file.
	Archive string

	// ArchiveSize is the size of the compressed archive in bytes.
	ArchiveSize int64

	// ProjectSize is the size of all regular files below the project root in
	// bytes, regardless of exclusions.
	ProjectSize int64

	Added   int64
	Skipped int64
	Failed  int
}

// Print prints the summary block.
func (s *Summary) Print(console *Console) {
	console.Printf("%s\nBuild complete\n", summarySeparator)
	console.Printf("Build size zipped: %.3f mb\n", Megabytes(s.ArchiveSize))
	console.Printf("Project size: %.3f mb\n", Megabytes(s.ProjectSize))
}

// Megabytes converts the size in bytes to megabytes (10^6 bytes) rounded to
// three decimals.
func Megabytes(size int64) float64 {
	const (
		bytesPerMegabyte = 1e6
		precision        = 1e3
	)

	return math.Round(float64(size)/bytesPerMegabyte*precision) / precision
}

// DirSize returns the sum of the sizes of all regular files below root.
// Symbolic links are not followed. Entries that can not be read are not
// counted. Only an unreadable root is an error.
func DirSize(root string) (int64, error) {
	var size int64

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil //nolint:nilerr
		}

		size += info.Size()

		return nil
	})
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	return size, nil
}
