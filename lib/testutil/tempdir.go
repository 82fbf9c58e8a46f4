// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// ConfigDir points XDG_CONFIG_HOME at a fresh temporary directory and
// clears the DevTrack environment overrides, so code that resolves
// default paths (session file, config file, board cache) never touches
// the real user configuration. Returns the directory.
//
// Uses t.Setenv, so the calling test must not be parallel.
func ConfigDir(t *testing.T) string {
	t.Helper()
	directory := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", directory)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(directory, "cache"))
	t.Setenv("DEVTRACK_SESSION_FILE", "")
	t.Setenv("DEVTRACK_CONFIG", "")
	t.Setenv("DEVTRACK_SERVER", "")
	return directory
}
