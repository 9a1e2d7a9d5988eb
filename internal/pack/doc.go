// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pack walks a project directory, minifies known assets and writes
// all entries that are not excluded into a single archive.
//
// Directories are scanned by their own goroutines. Every file is processed
// by an independent task: it is read, transformed if the [minify.Registry]
// has a transform for its extension, and written into the shared archive
// through an [archive.SyncWriter]. Task failures are collected and reported
// once all tasks finished. Archive write failures abort the run.
package pack
