// Package mockdb serves sqlmock databases through the adapter driver contract.
package mockdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

var seq atomic.Int64

// Driver serves a sqlmock database through the adapter driver contract,
// so backend adapters can be tested without a server.
// Every Open returns a new handle onto the same mock, so adapters may open
// and close as many handles as a call needs.
type Driver struct {
	Target core.Dialect
	DSN    string
}

// Dialect returns the dialect the mock pretends to speak.
func (m *Driver) Dialect() core.Dialect { return m.Target }

// Open returns a new handle onto the mock database.
func (m *Driver) Open(core.ConnectionConfig) (*sql.DB, error) {
	return sql.Open("sqlmock", m.DSN)
}

// Handle returns a handle that only stops the context.
func (m *Driver) Handle(_ *sql.Conn, stop context.CancelFunc) (cancel.Handle, error) {
	return &cancel.MSSQLHandle{Stop: stop}, nil
}

// OutsideTransaction is always false.
func (m *Driver) OutsideTransaction(string) bool { return false }

// New creates a sqlmock database for dialect d and a Driver serving it.
// The mock stays registered until test cleanup.
func New(t testing.TB, d core.Dialect) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	dsn := fmt.Sprintf("mockdb_%d", seq.Add(1))
	db, mock, err := sqlmock.NewWithDSN(dsn)
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Driver{Target: d, DSN: dsn}, mock
}
