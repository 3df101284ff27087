// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"
)

// testDBPath returns a database path inside a per-test temp directory.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}
