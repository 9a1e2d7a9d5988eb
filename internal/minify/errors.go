// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package minify

import "errors"

var (
	// ErrInvalidExtension is returned if a registry extension does not start
	// with a dot.
	ErrInvalidExtension = errors.New("extension must start with a dot")

	// ErrNilTransform is returned if nil is registered as transform.
	ErrNilTransform = errors.New("transform is nil")

	// ErrRemoteStatus is returned if the remote minifier responds with a
	// status other than 200 OK.
	ErrRemoteStatus = errors.New("unexpected remote minifier status")

	// ErrFailurePolicyInvalid is returned for unknown failure policies.
	ErrFailurePolicyInvalid = errors.New("invalid failure policy")
)
