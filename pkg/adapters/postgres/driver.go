package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// concurrentStmt matches statements PostgreSQL refuses inside a transaction block.
var concurrentStmt = regexp.MustCompile(`(?i)^\s*(CREATE\s+(UNIQUE\s+)?INDEX|DROP\s+INDEX|REINDEX\s+(INDEX|TABLE|SCHEMA|DATABASE|SYSTEM))\s+CONCURRENTLY\b`)

type driver struct{}

func (driver) Dialect() core.Dialect { return core.PostgreSQL }

// Open parses the DSN with pgx and opens a database/sql handle over it.
func (driver) Open(cfg core.ConnectionConfig) (*sql.DB, error) {
	connCfg, err := pgx.ParseConfig(buildPostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection settings: %w", err)
	}
	return stdlib.OpenDB(*connCfg), nil
}

// Handle extracts the raw pgconn so a cancel request can be sent on a
// side channel while the session keeps running.
func (driver) Handle(conn *sql.Conn, stop context.CancelFunc) (cancel.Handle, error) {
	h := &cancel.PostgresHandle{Stop: stop}
	err := conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		h.Conn = sc.Conn().PgConn()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (driver) OutsideTransaction(query string) bool {
	return concurrentStmt.MatchString(query)
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg core.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.SSL != nil && cfg.SSL.Mode != "" {
		sslmode = cfg.SSL.Mode
	}
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	parts := []string{
		"host=" + dsnValue(host),
		"port=" + strconv.Itoa(port),
		"dbname=" + dsnValue(cfg.Database),
		"sslmode=" + dsnValue(sslmode),
	}
	if cfg.User != "" {
		parts = append(parts, "user="+dsnValue(cfg.User))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	if cfg.SSL != nil && cfg.SSL.RootCert != "" {
		parts = append(parts, "sslrootcert="+dsnValue(cfg.SSL.RootCert))
	}
	if cfg.Schema != "" {
		parts = append(parts, "search_path="+dsnValue(cfg.Schema))
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Options)) {
		if k == "sslmode" {
			continue
		}
		parts = append(parts, k+"="+dsnValue(cfg.Options[k]))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes a value when it is empty or holds spaces, quotes or backslashes.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
