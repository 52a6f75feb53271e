package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/script"
)

// Driver is the per-backend part of a database/sql adapter.
type Driver interface {
	// Dialect returns the dialect the driver speaks.
	Dialect() core.Dialect

	// Open opens a database handle for cfg. It must not dial.
	Open(cfg core.ConnectionConfig) (*sql.DB, error)

	// Handle builds the cancellation handle for work running on conn.
	// stop cancels the context the work runs under.
	Handle(conn *sql.Conn, stop context.CancelFunc) (cancel.Handle, error)

	// OutsideTransaction reports whether a statement cannot run inside a
	// transaction block and must run after commit.
	OutsideTransaction(query string) bool
}

// BaseSQLAdapter provides the database/sql execution paths shared by all
// backends. Embed it in concrete adapters and supply a Driver.
type BaseSQLAdapter struct {
	Driver  Driver
	Logger  *slog.Logger
	Tracker *cancel.Tracker

	now func() time.Time
}

// NewBase creates a BaseSQLAdapter. A nil logger uses a discard logger.
func NewBase(driver Driver, deps Deps) BaseSQLAdapter {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return BaseSQLAdapter{
		Driver:  driver,
		Logger:  logger.With("dialect", string(driver.Dialect())),
		Tracker: deps.Tracker,
		now:     time.Now,
	}
}

// Dialect returns the driver's dialect.
func (b *BaseSQLAdapter) Dialect() core.Dialect {
	return b.Driver.Dialect()
}

func (b *BaseSQLAdapter) clock() time.Time {
	if b.now == nil {
		return time.Now()
	}
	return b.now()
}

// Connect opens a connection, pings it and closes it again.
func (b *BaseSQLAdapter) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	return b.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("failed to ping %s: %w", b.Dialect(), err)
		}
		return nil
	})
}

// WithConn opens a database handle for cfg and runs fn on one dedicated
// connection. Both are closed when fn returns.
func (b *BaseSQLAdapter) WithConn(ctx context.Context, cfg core.ConnectionConfig, fn func(ctx context.Context, conn *sql.Conn) error) error {
	db, err := b.Driver.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", b.Dialect(), err)
	}
	defer func() { _ = db.Close() }()

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrNotConnected, err)
	}
	defer func() { _ = conn.Close() }()

	return fn(ctx, conn)
}

// tracked runs fn under a cancellable context registered with the tracker
// as id. When the execution was cancelled while fn ran, its outcome is
// discarded and ErrExecutionCancelled is returned.
func (b *BaseSQLAdapter) tracked(ctx context.Context, conn *sql.Conn, id string, fn func(ctx context.Context) error) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	if id == "" || b.Tracker == nil {
		return fn(runCtx)
	}

	h, err := b.Driver.Handle(conn, stop)
	if err != nil {
		return fmt.Errorf("failed to create cancellation handle: %w", err)
	}
	if err := b.Tracker.Register(id, h); err != nil {
		return err
	}

	runErr := fn(runCtx)
	if !b.Tracker.Unregister(id) {
		b.Logger.Debug("discarding result of cancelled execution", "execution_id", id)
		return core.ErrExecutionCancelled
	}
	return runErr
}

// QueryMultiple splits sqlText and runs each statement in order on one
// connection. The first failing statement aborts the script.
func (b *BaseSQLAdapter) QueryMultiple(ctx context.Context, cfg core.ConnectionConfig, sqlText string, opts QueryOptions) (*core.MultiStatementResult, error) {
	d := b.Dialect()
	stmts := script.Split(sqlText, d)

	result := &core.MultiStatementResult{Results: make([]core.StatementResult, 0, len(stmts))}
	begin := b.clock()

	err := b.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		return b.tracked(ctx, conn, opts.ExecutionID, func(ctx context.Context) error {
			for i, st := range stmts {
				res, err := b.runStatement(ctx, conn, i, st)
				if err != nil {
					return &core.ExecutionError{Index: i, Statement: st.Text, Err: err}
				}
				result.Results = append(result.Results, res)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	result.StatementCount = len(result.Results)
	result.TotalDurationMs = millis(b.clock().Sub(begin))
	b.Logger.Debug("script executed",
		"statements", result.StatementCount,
		"duration_ms", result.TotalDurationMs)
	return result, nil
}

func (b *BaseSQLAdapter) runStatement(ctx context.Context, conn *sql.Conn, index int, st script.Statement) (core.StatementResult, error) {
	res := core.StatementResult{
		Statement:       st.Text,
		StatementIndex:  index,
		IsDataReturning: st.IsDataReturning(b.Dialect()),
		Rows:            [][]any{},
		Fields:          []core.FieldInfo{},
	}
	start := b.clock()

	if res.IsDataReturning {
		//nolint:rowserrcheck // checked by ScanRows
		rows, err := conn.QueryContext(ctx, st.Text)
		if err != nil {
			return res, err
		}
		fields, data, err := ScanRows(rows)
		if err != nil {
			return res, err
		}
		res.Fields = fields
		res.Rows = data
		res.RowCount = int64(len(data))
	} else {
		r, err := conn.ExecContext(ctx, st.Text)
		if err != nil {
			return res, err
		}
		if n, err := r.RowsAffected(); err == nil {
			res.RowCount = n
		}
	}

	res.DurationMs = millis(b.clock().Sub(start))
	return res, nil
}

// ExecuteTransaction runs queries in order inside one transaction. On the
// first failure the transaction is rolled back and an *core.ExecutionError
// is returned. Statements the driver marks OutsideTransaction run one by one
// after commit.
func (b *BaseSQLAdapter) ExecuteTransaction(ctx context.Context, cfg core.ConnectionConfig, queries []core.ParameterizedQuery, opts TxOptions) (*core.TxResult, error) {
	result := &core.TxResult{}
	if len(queries) == 0 {
		return result, nil
	}

	err := b.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		return b.tracked(ctx, conn, opts.ExecutionID, func(ctx context.Context) error {
			n, err := b.execTx(ctx, conn, queries)
			result.RowsAffected = n
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *BaseSQLAdapter) execTx(ctx context.Context, conn *sql.Conn, queries []core.ParameterizedQuery) (int64, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var (
		total    int64
		deferred []int
	)
	for i, q := range queries {
		if b.Driver.OutsideTransaction(q.SQL) {
			deferred = append(deferred, i)
			continue
		}
		r, err := tx.ExecContext(ctx, q.SQL, q.Params...)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				b.Logger.Warn("rollback failed", "error", rbErr)
			}
			return 0, &core.ExecutionError{Index: i, Statement: q.SQL, Err: err}
		}
		total += affected(r)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, i := range deferred {
		q := queries[i]
		r, err := conn.ExecContext(ctx, q.SQL, q.Params...)
		if err != nil {
			return total, &core.ExecutionError{Index: i, Statement: q.SQL, Err: err}
		}
		total += affected(r)
	}

	b.Logger.Debug("transaction committed",
		"statements", len(queries),
		"after_commit", len(deferred),
		"rows_affected", total)
	return total, nil
}

// Query runs a read-only introspection query and calls scan for each row.
func (b *BaseSQLAdapter) Query(ctx context.Context, cfg core.ConnectionConfig, query string, args []any, scan func(*sql.Rows) error) error {
	return b.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		return QueryConn(ctx, conn, query, args, scan)
	})
}

// QueryConn runs query on conn and calls scan for each row.
func QueryConn(ctx context.Context, conn *sql.Conn, query string, args []any, scan func(*sql.Rows) error) error {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

func affected(r sql.Result) int64 {
	n, err := r.RowsAffected()
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
