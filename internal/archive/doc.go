// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package archive provides the sinks the packager writes its entries into.
// A [Writer] accepts existing files and named blobs. The concrete writers are
// sequential; wrap them in a [SyncWriter] for use from multiple goroutines.
package archive
