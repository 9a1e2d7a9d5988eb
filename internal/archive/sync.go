// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sync"
)

var _ Writer = (*SyncWriter)(nil)

// SyncWriter serializes all writes into the wrapped [Writer] and makes sure
// entry names are unique.
//
// Sources passed to [SyncWriter.WriteFile] are read before the lock is
// acquired, so only the actual archive write happens in the critical
// section. Errors of the wrapped writer are returned as [WriteError]. Errors
// reading the source and [ErrEntryExists] are not, since the archive is still
// intact in that case.
type SyncWriter struct {
	mu      sync.Mutex
	writer  Writer
	entries map[string]struct{}
	closed  bool
}

// NewSyncWriter wraps the given [Writer].
func NewSyncWriter(writer Writer) *SyncWriter {
	return &SyncWriter{
		writer:  writer,
		entries: make(map[string]struct{}),
	}
}

// WriteFile reads source into memory and writes it into the archive.
func (w *SyncWriter) WriteFile(name string, source fs.File) error {
	file, err := bufferFile(source)
	if err != nil {
		return &fs.PathError{Op: "read", Path: name, Err: err}
	}

	return w.locked(name, func() error {
		return w.writer.WriteFile(name, file)
	})
}

// WriteBlob writes data into the archive.
func (w *SyncWriter) WriteBlob(name string, data []byte) error {
	return w.locked(name, func() error {
		return w.writer.WriteBlob(name, data)
	})
}

// Close closes the wrapped [Writer]. It must not be called before all writes
// returned.
func (w *SyncWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return &WriteError{Err: ErrWriterClosed}
	}

	w.closed = true

	err := w.writer.Close()
	if err != nil {
		return &WriteError{Err: err}
	}

	return nil
}

// Len returns the number of entries written so far.
func (w *SyncWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.entries)
}

func (w *SyncWriter) locked(name string, fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return &WriteError{Name: name, Err: ErrWriterClosed}
	}

	if _, exists := w.entries[name]; exists {
		return fmt.Errorf("%s: %w", name, ErrEntryExists)
	}

	w.entries[name] = struct{}{}

	err := fn()
	if err != nil {
		return &WriteError{Name: name, Err: err}
	}

	return nil
}

var _ fs.File = (*bufferedFile)(nil)

// bufferedFile is a fully read [fs.File].
type bufferedFile struct {
	*bytes.Reader
	info fs.FileInfo
}

func (f *bufferedFile) Stat() (fs.FileInfo, error) {
	return f.info, nil
}

func (*bufferedFile) Close() error {
	return nil
}

// sizedFileInfo reports the size of the data actually read, which may differ
// from the size at stat time if the file changed in between.
type sizedFileInfo struct {
	fs.FileInfo
	size int64
}

func (i sizedFileInfo) Size() int64 {
	return i.size
}

func bufferFile(source fs.File) (*bufferedFile, error) {
	info, err := source.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}

	data, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	return &bufferedFile{
		Reader: bytes.NewReader(data),
		info:   sizedFileInfo{FileInfo: info, size: int64(len(data))},
	}, nil
}
