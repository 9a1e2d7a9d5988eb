// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package minify

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Transform converts the content of an asset. It must not modify src and must
// be safe for concurrent use.
type Transform func(ctx context.Context, src []byte) ([]byte, error)

// Registry maps file extensions to [Transform]s. It is immutable once
// created and safe for concurrent use. The nil Registry is empty.
type Registry struct {
	transforms map[string]Transform
}

// NewRegistry creates a [Registry] from the given map. Keys are extensions
// including the leading dot. They are lowercased, so lookups are case
// insensitive. The map is copied.
func NewRegistry(transforms map[string]Transform) (*Registry, error) {
	registry := &Registry{
		transforms: make(map[string]Transform, len(transforms)),
	}

	for ext, transform := range transforms {
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("%q: %w", ext, ErrInvalidExtension)
		}

		if transform == nil {
			return nil, fmt.Errorf("%q: %w", ext, ErrNilTransform)
		}

		registry.transforms[strings.ToLower(ext)] = transform
	}

	return registry, nil
}

// Lookup returns the [Transform] for the given extension, if any.
func (r *Registry) Lookup(ext string) (Transform, bool) {
	if r == nil {
		return nil, false
	}

	transform, exists := r.transforms[strings.ToLower(ext)]

	return transform, exists
}

// Extensions returns the sorted list of registered extensions.
func (r *Registry) Extensions() []string {
	if r == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(r.transforms))
}
