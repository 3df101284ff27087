// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file is group- or
// world-readable. The config can hold provider API keys and the NATS token,
// so it should be 0600. Best effort: never fails startup.
func WarnInsecurePermissions(path string) {
	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004

	if perm := info.Mode().Perm(); perm&(groupRead|otherRead) != 0 {
		slog.Warn("config file is readable by other users, API keys may be exposed",
			"path", path,
			"mode", info.Mode(),
			"recommended", "0600",
		)
	}
}
