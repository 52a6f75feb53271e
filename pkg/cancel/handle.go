// Package cancel tracks in-flight executions and interrupts them on request.
//
// Each execution registers a Handle under its execution id. A Handle is a
// closed union with one variant per dialect; Tracker.Cancel dispatches to
// the mechanism that dialect needs.
package cancel

import (
	"context"
	"io"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Handle is an interruptible piece of in-flight work.
// The variants are PostgresHandle, MySQLHandle, SQLiteHandle and MSSQLHandle.
type Handle interface {
	Dialect() core.Dialect
	isHandle()
}

// PgCanceller is satisfied by *pgconn.PgConn.
type PgCanceller interface {
	CancelRequest(ctx context.Context) error
}

// PostgresHandle cancels by sending a cancel request on a separate
// connection; the session that ran the query stays usable.
type PostgresHandle struct {
	Conn PgCanceller
	Stop context.CancelFunc
}

// MySQLHandle cancels by stopping the request context, which makes the
// driver destroy the socket, and closing the dedicated connection.
type MySQLHandle struct {
	Conn io.Closer
	Stop context.CancelFunc
}

// SQLiteHandle cancels by interrupting the statement through its context
// and closing the whole connection.
type SQLiteHandle struct {
	Conn io.Closer
	Stop context.CancelFunc
}

// MSSQLHandle cancels only the in-flight request: the driver sends an
// attention packet and the connection pool is left untouched.
type MSSQLHandle struct {
	Stop context.CancelFunc
}

func (*PostgresHandle) Dialect() core.Dialect { return core.PostgreSQL }
func (*MySQLHandle) Dialect() core.Dialect    { return core.MySQL }
func (*SQLiteHandle) Dialect() core.Dialect   { return core.SQLite }
func (*MSSQLHandle) Dialect() core.Dialect    { return core.MSSQL }

func (*PostgresHandle) isHandle() {}
func (*MySQLHandle) isHandle()    {}
func (*SQLiteHandle) isHandle()   {}
func (*MSSQLHandle) isHandle()    {}

func stop(f context.CancelFunc) {
	if f != nil {
		f()
	}
}
