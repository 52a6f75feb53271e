package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

type driver struct{}

func (driver) Dialect() core.Dialect { return core.SQLite }

func (driver) Open(cfg core.ConnectionConfig) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn)
}

// Handle interrupts the running statement through its context and closes
// the connection.
func (driver) Handle(conn *sql.Conn, stop context.CancelFunc) (cancel.Handle, error) {
	return &cancel.SQLiteHandle{Conn: conn, Stop: stop}, nil
}

func (driver) OutsideTransaction(string) bool { return false }

// buildDSN turns the database path into a modernc DSN with foreign keys
// enforced and a busy timeout.
func buildDSN(cfg core.ConnectionConfig) (string, error) {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return "", fmt.Errorf("sqlite connection requires a database path")
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	for _, k := range slices.Sorted(maps.Keys(cfg.Options)) {
		if strings.HasPrefix(k, "_") {
			q.Add(k, cfg.Options[k])
		} else {
			q.Add("_pragma", k+"("+cfg.Options[k]+")")
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode(), nil
}
