// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package minify provides the transforms applied to assets before they are
// archived.
//
// A [Registry] maps lowercased file extensions to a [Transform]. The built-in
// transforms for stylesheets and markup run locally. Scripts can be minified
// locally or by a remote service, see [RemoteScript].
package minify
