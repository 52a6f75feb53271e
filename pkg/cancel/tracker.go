package cancel

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

type entry struct {
	handle    Handle
	startedAt time.Time
}

// Tracker maps execution ids to the handles that can interrupt them.
// It is the only shared mutable state of the execution layer and is safe
// for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]entry
	logger  *slog.Logger
	now     func() time.Time
}

// NewTracker creates an empty tracker.
// If logger is nil, a discard logger is used.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		entries: make(map[string]entry),
		logger:  logger,
		now:     time.Now,
	}
}

// Register records the handle of an execution.
// Execution ids are unique; registering an id twice is an error.
func (t *Tracker) Register(id string, h Handle) error {
	if id == "" {
		return fmt.Errorf("execution id is required")
	}
	if h == nil {
		return fmt.Errorf("execution %q: handle is required", id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[id]; exists {
		return fmt.Errorf("execution %q is already registered", id)
	}
	t.entries[id] = entry{handle: h, startedAt: t.now()}
	t.logger.Debug("execution registered", "execution_id", id, "dialect", h.Dialect())
	return nil
}

// Unregister removes an execution. It is idempotent and reports whether the
// entry was still present; false means the execution was cancelled (or never
// registered) and its result must be discarded.
func (t *Tracker) Unregister(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	delete(t.entries, id)
	return ok
}

// Cancel interrupts an execution. The entry is removed whatever the outcome.
// An unknown id yields Cancelled=false and is not an error for callers.
func (t *Tracker) Cancel(ctx context.Context, id string) core.CancelResult {
	t.mu.Lock()
	e, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()

	if !ok {
		err := &core.CancellationError{ExecutionID: id, Message: "not found or already completed"}
		return core.CancelResult{Cancelled: false, Error: err.Error()}
	}

	t.logger.Debug("cancelling execution",
		"execution_id", id,
		"dialect", e.handle.Dialect(),
		"running_ms", t.now().Sub(e.startedAt).Milliseconds())

	if err := t.interrupt(ctx, e.handle); err != nil {
		t.logger.Warn("cancel request failed", "execution_id", id, "error", err)
		return core.CancelResult{Cancelled: false, Error: err.Error()}
	}
	return core.CancelResult{Cancelled: true}
}

// interrupt dispatches to the cancellation mechanism of each dialect.
func (t *Tracker) interrupt(ctx context.Context, h Handle) error {
	switch h := h.(type) {
	case *PostgresHandle:
		var err error
		if h.Conn != nil {
			err = h.Conn.CancelRequest(ctx)
		}
		stop(h.Stop)
		return err
	case *MySQLHandle:
		stop(h.Stop)
		t.closeAsync(h.Conn)
		return nil
	case *SQLiteHandle:
		stop(h.Stop)
		t.closeAsync(h.Conn)
		return nil
	case *MSSQLHandle:
		stop(h.Stop)
		return nil
	default:
		panic(fmt.Sprintf("cancel: unhandled handle type %T", h))
	}
}

// closeAsync closes a connection without waiting for the interrupted call
// to release it.
func (t *Tracker) closeAsync(c interface{ Close() error }) {
	if c == nil {
		return
	}
	go func() {
		if err := c.Close(); err != nil {
			t.logger.Debug("closing cancelled connection", "error", err)
		}
	}()
}

// Active lists registered executions, oldest first.
func (t *Tracker) Active() []core.ExecutionInfo {
	t.mu.Lock()
	out := make([]core.ExecutionInfo, 0, len(t.entries))
	for id, e := range t.entries {
		out = append(out, core.ExecutionInfo{ID: id, Dialect: e.handle.Dialect(), StartedAt: e.startedAt})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Len returns the number of registered executions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
