// Package history records executed queries, edits and DDL in a local
// SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Kind classifies a history entry.
type Kind string

// Entry kinds.
const (
	KindQuery Kind = "query"
	KindEdit  Kind = "edit"
	KindDDL   Kind = "ddl"
)

// Entry is one recorded execution.
type Entry struct {
	ID           string       `json:"id"`
	ExecutionID  string       `json:"executionId,omitempty"`
	Kind         Kind         `json:"kind"`
	Connection   string       `json:"connection,omitempty"`
	Dialect      core.Dialect `json:"dialect"`
	Statements   []string     `json:"statements"`
	Success      bool         `json:"success"`
	Cancelled    bool         `json:"cancelled,omitempty"`
	Error        string       `json:"error,omitempty"`
	RowsAffected int64        `json:"rowsAffected"`
	DurationMs   float64      `json:"durationMs"`
	StartedAt    time.Time    `json:"startedAt"`
}

// Filter narrows List results.
type Filter struct {
	Limit      int
	Kind       Kind
	Dialect    core.Dialect
	FailedOnly bool
}

// Store persists history entries.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// timeFormat is fixed width so started_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens (creating if needed) the history database at path and
// migrates it.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("history store opened", slog.String("path", path))
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores an entry, assigning an id and start time when missing.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = s.now()
	}
	if e.Statements == nil {
		e.Statements = []string{}
	}

	stmts, err := json.Marshal(e.Statements)
	if err != nil {
		return fmt.Errorf("failed to encode statements: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions
		  (id, execution_id, kind, connection, dialect, statements, success, cancelled,
		   error, rows_affected, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ExecutionID, string(e.Kind), e.Connection, string(e.Dialect), string(stmts),
		e.Success, e.Cancelled, e.Error, e.RowsAffected, e.DurationMs,
		e.StartedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}

	s.logger.Debug("execution recorded",
		slog.String("id", e.ID),
		slog.String("kind", string(e.Kind)),
		slog.Bool("success", e.Success))
	return nil
}

const selectColumns = `id, execution_id, kind, connection, dialect, statements, success, cancelled,
	error, rows_affected, duration_ms, started_at`

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Dialect != "" {
		where = append(where, "dialect = ?")
		args = append(args, string(f.Dialect))
	}
	if f.FailedOnly {
		where = append(where, "success = 0")
	}

	query := "SELECT " + selectColumns + " FROM executions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}

// Get returns one entry by id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM executions WHERE id = ?", id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("history entry %s: %w", id, err)
	}
	return &e, nil
}

// Prune deletes all but the newest keep entries and returns how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM executions WHERE id NOT IN (
		  SELECT id FROM executions ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (Entry, error) {
	var (
		e                Entry
		kind, dialect    string
		stmts, startedAt string
	)
	err := r.Scan(&e.ID, &e.ExecutionID, &kind, &e.Connection, &dialect, &stmts,
		&e.Success, &e.Cancelled, &e.Error, &e.RowsAffected, &e.DurationMs, &startedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Kind = Kind(kind)
	e.Dialect = core.Dialect(dialect)
	if err := json.Unmarshal([]byte(stmts), &e.Statements); err != nil {
		return Entry{}, fmt.Errorf("failed to decode statements: %w", err)
	}
	if e.StartedAt, err = time.Parse(timeFormat, startedAt); err != nil {
		return Entry{}, fmt.Errorf("failed to parse start time: %w", err)
	}
	return e, nil
}
