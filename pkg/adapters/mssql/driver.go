package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"net"
	"net/url"
	"slices"
	"strconv"

	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

type driver struct{}

func (driver) Dialect() core.Dialect { return core.MSSQL }

func (driver) Open(cfg core.ConnectionConfig) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := mssqldb.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid sqlserver connection settings: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Handle cancels only the request context; the driver sends an attention
// packet and the connection stays usable.
func (driver) Handle(_ *sql.Conn, stop context.CancelFunc) (cancel.Handle, error) {
	return &cancel.MSSQLHandle{Stop: stop}, nil
}

func (driver) OutsideTransaction(string) bool { return false }

// buildDSN constructs a sqlserver:// URL.
func buildDSN(cfg core.ConnectionConfig) (string, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 1433
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	q.Set("app name", "dbdesk")

	mode := ""
	if cfg.SSL != nil {
		mode = cfg.SSL.Mode
	}
	switch mode {
	case "", "disable":
		q.Set("encrypt", "disable")
	case "require":
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", "true")
	case "verify-ca", "verify-full":
		q.Set("encrypt", "true")
	default:
		return "", fmt.Errorf("unsupported ssl mode %q", mode)
	}
	if cfg.SSL != nil && cfg.SSL.RootCert != "" {
		q.Set("certificate", cfg.SSL.RootCert)
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Options)) {
		q.Set(k, cfg.Options[k])
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String(), nil
}
