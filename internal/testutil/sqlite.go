package testutil

import (
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// TempSQLite returns a connection config for a fresh SQLite database file
// inside the test's temporary directory.
func TempSQLite(t testing.TB) core.ConnectionConfig {
	t.Helper()
	return core.ConnectionConfig{
		DBType: core.SQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
}
