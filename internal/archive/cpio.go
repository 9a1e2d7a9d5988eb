// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: MIT

package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/cavaliergopher/cpio"
	"github.com/pierrec/lz4/v4"
)

var _ Writer = (*CPIOWriter)(nil)

// CPIOWriter implements [Writer] for [cpio.Writer].
type CPIOWriter struct {
	cpioWriter *cpio.Writer
	// Closed in order after the cpio writer.
	closers []io.Closer
}

// NewCPIOWriter creates a new uncompressed cpio archive writer.
func NewCPIOWriter(w io.Writer) *CPIOWriter {
	return &CPIOWriter{cpioWriter: cpio.NewWriter(w)}
}

// NewLZ4CPIOWriter creates a new cpio archive writer whose output is lz4
// compressed with the highest compression level.
func NewLZ4CPIOWriter(w io.Writer) (*CPIOWriter, error) {
	lz4Writer := lz4.NewWriter(w)

	err := lz4Writer.Apply(lz4.CompressionLevelOption(lz4.Level9))
	if err != nil {
		return nil, fmt.Errorf("lz4 options: %w", err)
	}

	writer := NewCPIOWriter(lz4Writer)
	writer.closers = append(writer.closers, lz4Writer)

	return writer, nil
}

// Close closes the [CPIOWriter] and any compression layer. Flush is called by
// the underlying closers. It does not close the underlying [io.Writer].
func (w *CPIOWriter) Close() error {
	err := w.cpioWriter.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	for _, closer := range w.closers {
		err := closer.Close()
		if err != nil {
			return fmt.Errorf("close compression: %w", err)
		}
	}

	return nil
}

// writeHeader writes the cpio header.
func (w *CPIOWriter) writeHeader(hdr *cpio.Header) error {
	if err := w.cpioWriter.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header for %s: %w", hdr.Name, err)
	}

	return nil
}

func (w *CPIOWriter) writeBody(name string, body io.Reader) error {
	if _, err := io.Copy(w.cpioWriter, body); err != nil {
		return fmt.Errorf("write body for %s: %w", name, err)
	}

	return nil
}

// WriteFile copies the existing file from source into the archive.
func (w *CPIOWriter) WriteFile(name string, source fs.File) error {
	info, err := source.Stat()
	if err != nil {
		return fmt.Errorf("read info: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", name, ErrNotRegularFile)
	}

	header, err := cpio.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("create header: %w", err)
	}

	header.Name = name

	if err := w.writeHeader(header); err != nil {
		return err
	}

	return w.writeBody(name, source)
}

// WriteBlob adds the data as regular file with the current time as
// modification time.
func (w *CPIOWriter) WriteBlob(name string, data []byte) error {
	header := &cpio.Header{
		Name:    name,
		Mode:    cpio.TypeReg | blobMode,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}

	if err := w.writeHeader(header); err != nil {
		return err
	}

	return w.writeBody(name, bytes.NewReader(data))
}
