// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package archive

import (
	"io"
	"slices"
)

const (
	// FormatZip is a deflate compressed zip archive.
	FormatZip Format = "zip"
	// FormatCPIO is an uncompressed newc cpio archive.
	FormatCPIO Format = "cpio"
	// FormatCPIOLZ4 is a newc cpio archive in lz4 frames.
	FormatCPIOLZ4 Format = "cpio.lz4"
)

// Format represents the supported archive formats.
type Format string

func (f *Format) isKnown() bool {
	knownFormats := []Format{
		FormatZip,
		FormatCPIO,
		FormatCPIOLZ4,
	}

	return slices.Contains(knownFormats, *f)
}

// Extension returns the file name extension including the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// NewWriter creates a new [Writer] of the format that writes into w.
//
//nolint:ireturn
func (f Format) NewWriter(w io.Writer) (Writer, error) {
	switch f {
	case FormatZip:
		return NewZipWriter(w), nil
	case FormatCPIO:
		return NewCPIOWriter(w), nil
	case FormatCPIOLZ4:
		writer, err := NewLZ4CPIOWriter(w)
		if err != nil {
			return nil, err
		}

		return writer, nil
	default:
		return nil, ErrFormatInvalid
	}
}

// String implements [fmt.Stringer].
func (f *Format) String() string {
	if !f.isKnown() {
		return ""
	}

	return string(*f)
}

// MarshalText implements [encoding.TextMarshaler].
func (f Format) MarshalText() ([]byte, error) {
	s := f.String()
	if s == "" {
		return nil, ErrFormatInvalid
	}

	return []byte(s), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Format) UnmarshalText(text []byte) error {
	format := Format(text)

	if !format.isKnown() {
		return ErrFormatInvalid
	}

	*f = format

	return nil
}

// Set implements [github.com/spf13/pflag.Value].
func (f *Format) Set(s string) error {
	return f.UnmarshalText([]byte(s))
}

// Type implements [github.com/spf13/pflag.Value].
func (*Format) Type() string {
	return "format"
}
