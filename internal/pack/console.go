// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pack

import (
	"fmt"
	"io"
	"sync"
)

// Console prints line based progress notices. Lines written concurrently are
// never interleaved.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool
}

// NewConsole creates a [Console] writing to out. If quiet is true, progress
// notices are suppressed. Other output is still printed.
func NewConsole(out io.Writer, quiet bool) *Console {
	return &Console{out: out, quiet: quiet}
}

// Skipping prints the notice for an excluded entry.
func (c *Console) Skipping(path string) {
	c.notice("Skipping", path)
}

// Adding prints the notice for an entry that is processed.
func (c *Console) Adding(path string) {
	c.notice("Adding", path)
}

// Printf prints formatted output regardless of quiet mode.
func (c *Console) Printf(format string, a ...any) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, format, a...)
}

func (c *Console) notice(action, path string) {
	if c == nil || c.quiet {
		return
	}

	c.Printf("%s %s\n", action, path)
}
