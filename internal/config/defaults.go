package config

import (
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// Default configuration values.
const (
	DefaultHistoryPath  = ".dbdesk/history.db"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultHistoryLimit = 50
)

// DefaultPort returns the conventional port of a network dialect, or 0.
func DefaultPort(d core.Dialect) int {
	switch d {
	case core.PostgreSQL:
		return 5432
	case core.MySQL:
		return 3306
	case core.MSSQL:
		return 1433
	case core.SQLite:
		return 0
	default:
		core.UnreachableDialect(d)
		return 0
	}
}

// ApplyConnectionDefaults fills the port and default schema of c.
// MySQL's default schema is the database itself and is left unset.
func ApplyConnectionDefaults(c *core.ConnectionConfig) {
	if c == nil || !c.DBType.Valid() {
		return
	}
	if c.Port == 0 {
		c.Port = DefaultPort(c.DBType)
	}
	if c.Schema == "" {
		c.Schema = dialect.For(c.DBType).DefaultSchema()
	}
}
