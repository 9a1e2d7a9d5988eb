// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"io"
	"io/fs"

	"github.com/stretchr/testify/mock"
)

var _ Writer = (*MockWriter)(nil)

// MockWriter is a [Writer] for tests. Sources given to
// [MockWriter.WriteFile] are read, so expectations can match on content.
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteFile(name string, source fs.File) error {
	data, err := io.ReadAll(source)
	if err != nil {
		return err //nolint:wrapcheck
	}

	args := m.Called(name, data)

	return args.Error(0)
}

func (m *MockWriter) WriteBlob(name string, data []byte) error {
	args := m.Called(name, data)

	return args.Error(0)
}

func (m *MockWriter) Close() error {
	args := m.Called()

	return args.Error(0)
}
