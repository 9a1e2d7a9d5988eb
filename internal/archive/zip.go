// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"io/fs"
	"time"
)

const blobMode = 0o644

var _ Writer = (*ZipWriter)(nil)

// ZipWriter implements [Writer] for [zip.Writer]. All entries are deflate
// compressed with [flate.BestCompression].
type ZipWriter struct {
	zipWriter *zip.Writer
}

// NewZipWriter creates a new zip archive writer.
func NewZipWriter(w io.Writer) *ZipWriter {
	zipWriter := zip.NewWriter(w)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	return &ZipWriter{zipWriter}
}

// Close writes the central directory. It does not close the underlying
// [io.Writer].
func (w *ZipWriter) Close() error {
	err := w.zipWriter.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}

// WriteFile copies the existing file from source into the archive.
func (w *ZipWriter) WriteFile(name string, source fs.File) error {
	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("read info: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", name, ErrNotRegularFile)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create header: %w", err)
	}

	header.Name = name
	header.Method = zip.Deflate

	return w.write(header, source)
}

// WriteBlob adds the data as regular file with the current time as
// modification time.
func (w *ZipWriter) WriteBlob(name string, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: time.Now(),
	}
	header.SetMode(blobMode)

	return w.write(header, bytes.NewReader(data))
}

func (w *ZipWriter) write(header *zip.FileHeader, body io.Reader) error {
	entry, err := w.zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("write header for %s: %w", header.Name, err)
	}

	if _, err := io.Copy(entry, body); err != nil {
		return fmt.Errorf("write body for %s: %w", header.Name, err)
	}

	return nil
}
