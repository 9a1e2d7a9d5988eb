// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import "runtime/debug"

// Set on build.
var version = "dev" //nolint:gochecknoglobals

func buildVersion() string {
	if version != "dev" {
		return version
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok || buildInfo.Main.Version == "" {
		return version
	}

	return buildInfo.Main.Version
}
