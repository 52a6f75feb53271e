// Package engine is the calling-layer facade over the compilers and adapters.
// It turns edit batches and table definitions into executed SQL and reports
// every user-facing failure as data.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/cancel"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Recorder persists execution history. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e *history.Entry) error
}

// Config holds engine configuration.
type Config struct {
	// Connection is the target every call runs against.
	Connection core.ConnectionConfig
	// ConnectionName labels history entries (optional).
	ConnectionName string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Tracker is shared with the adapter; a private one is created if nil.
	Tracker *cancel.Tracker
	// History records executions (optional).
	History Recorder
	// Adapter overrides the registry lookup by dialect.
	Adapter adapter.Adapter
}

// ExecOptions controls one executing call.
type ExecOptions struct {
	// ExecutionID makes the call cancellable through Cancel.
	ExecutionID string
}

// Engine runs edits, DDL and scripts against one connection.
type Engine struct {
	conn    core.ConnectionConfig
	name    string
	db      adapter.Adapter
	tracker *cancel.Tracker
	history Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an engine. It does not connect; use Ping to check the target.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.Connection.DBType.Valid() {
		return nil, fmt.Errorf("unsupported database type %q", cfg.Connection.DBType)
	}

	tracker := cfg.Tracker
	if tracker == nil {
		tracker = cancel.NewTracker(logger)
	}

	db := cfg.Adapter
	if db == nil {
		var err error
		db, err = adapter.ForConfig(cfg.Connection, adapter.Deps{Logger: logger, Tracker: tracker})
		if err != nil {
			return nil, fmt.Errorf("failed to create adapter: %w", err)
		}
	}

	logger.Debug("initializing engine",
		slog.String("dialect", string(cfg.Connection.DBType)),
		slog.String("connection", cfg.ConnectionName))

	return &Engine{
		conn:    cfg.Connection,
		name:    cfg.ConnectionName,
		db:      db,
		tracker: tracker,
		history: cfg.History,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Dialect returns the dialect of the connection.
func (e *Engine) Dialect() core.Dialect {
	return e.conn.DBType
}

// Connection returns the connection config the engine runs against.
func (e *Engine) Connection() core.ConnectionConfig {
	return e.conn
}

// Ping checks that the target is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.db.Connect(ctx, e.conn); err != nil {
		return fmt.Errorf("%w: %w", core.ErrNotConnected, err)
	}
	return nil
}

// Cancel stops the execution registered under id.
func (e *Engine) Cancel(ctx context.Context, id string) core.CancelResult {
	return e.tracker.Cancel(ctx, id)
}

// Active lists executions currently registered for cancellation.
func (e *Engine) Active() []core.ExecutionInfo {
	return e.tracker.Active()
}

// record stores a history entry. Failures are logged, never returned.
func (e *Engine) record(ctx context.Context, kind history.Kind, opts ExecOptions, stmts []string, start time.Time, rows int64, err error) {
	if e.history == nil {
		return
	}
	entry := &history.Entry{
		ExecutionID:  opts.ExecutionID,
		Kind:         kind,
		Connection:   e.name,
		Dialect:      e.conn.DBType,
		Statements:   stmts,
		Success:      err == nil,
		RowsAffected: rows,
		DurationMs:   float64(e.now().Sub(start).Microseconds()) / 1000,
		StartedAt:    start,
	}
	if err != nil {
		entry.Error = err.Error()
		entry.Cancelled = core.KindOf(err) == core.KindCancellation
	}
	if rerr := e.history.Record(context.WithoutCancel(ctx), entry); rerr != nil {
		e.logger.Warn("failed to record history", slog.String("error", rerr.Error()))
	}
}
