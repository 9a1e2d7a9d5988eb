// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pack

import (
	"maps"
	"path"
	"slices"
	"strings"
)

// DefaultExcludes are excluded unless disabled explicitly.
var DefaultExcludes = []string{
	".assetpack-args",
	"build",
	"build.zip",
	"sources",
	".git",
	".gitattributes",
	".gitignore",
	"readme.md",
	"README.md",
	"LICENSE",
}

// ExclusionSet is a set of slash separated paths relative to the project
// root. Membership is tested by exact match of the normalized path. There is
// no pattern or prefix matching. An excluded directory is not descended
// into, so its content is excluded as well.
type ExclusionSet map[string]struct{}

// NewExclusionSet creates a new [ExclusionSet] with the given paths.
func NewExclusionSet(paths ...string) ExclusionSet {
	set := make(ExclusionSet, len(paths))
	set.Add(paths...)

	return set
}

// Add adds the given paths. Empty paths are ignored.
func (s ExclusionSet) Add(paths ...string) {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}

		s[NormalizePath(p)] = struct{}{}
	}
}

// Contains returns true if the normalized path is in the set.
func (s ExclusionSet) Contains(p string) bool {
	_, exists := s[NormalizePath(p)]
	return exists
}

// Paths returns the sorted paths of the set.
func (s ExclusionSet) Paths() []string {
	return slices.Sorted(maps.Keys(s))
}

// NormalizePath converts the path to a cleaned, slash separated path.
// Backslashes are considered separators regardless of the host.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return path.Clean(p)
}
