package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

type driver struct{}

func (driver) Dialect() core.Dialect { return core.MySQL }

func (driver) Open(cfg core.ConnectionConfig) (*sql.DB, error) {
	mc, err := buildConfig(cfg)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql connection settings: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// Handle closes the dedicated connection on cancel. Stopping the context
// first makes the driver drop the socket of the running query.
func (driver) Handle(conn *sql.Conn, stop context.CancelFunc) (cancel.Handle, error) {
	return &cancel.MySQLHandle{Conn: conn, Stop: stop}, nil
}

// OutsideTransaction is false: MySQL DDL commits implicitly but is accepted
// inside a transaction.
func (driver) OutsideTransaction(string) bool { return false }

// buildConfig maps a connection config onto the driver's config.
func buildConfig(cfg core.ConnectionConfig) (*mysql.Config, error) {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.MultiStatements = false

	if cfg.SSL != nil {
		switch cfg.SSL.Mode {
		case "", "disable":
		case "require":
			mc.TLSConfig = "skip-verify"
		case "verify-ca", "verify-full":
			mc.TLSConfig = "true"
		case "prefer", "preferred":
			mc.TLSConfig = "preferred"
		default:
			return nil, fmt.Errorf("unsupported ssl mode %q", cfg.SSL.Mode)
		}
	}

	if len(cfg.Options) > 0 {
		mc.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			mc.Params[k] = v
		}
	}
	return mc, nil
}
