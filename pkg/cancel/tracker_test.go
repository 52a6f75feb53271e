package cancel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leapstack-labs/dbdesk/internal/testutil"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePgConn struct {
	calls atomic.Int32
	err   error
}

func (f *fakePgConn) CancelRequest(context.Context) error {
	f.calls.Add(1)
	return f.err
}

type fakeCloser struct {
	closed chan struct{}
}

func newFakeCloser() *fakeCloser {
	return &fakeCloser{closed: make(chan struct{})}
}

func (f *fakeCloser) Close() error {
	close(f.closed)
	return nil
}

func TestCancel_UnknownID(t *testing.T) {
	tr := NewTracker(testutil.NewTestLogger(t))

	res := tr.Cancel(context.Background(), "missing")
	assert.False(t, res.Cancelled)
	assert.Contains(t, res.Error, "not found or already completed")
}

func TestCancel_Postgres(t *testing.T) {
	tr := NewTracker(testutil.NewTestLogger(t))
	pg := &fakePgConn{}
	stopped := false
	require.NoError(t, tr.Register("e1", &PostgresHandle{Conn: pg, Stop: func() { stopped = true }}))

	res := tr.Cancel(context.Background(), "e1")
	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Error)
	assert.Equal(t, int32(1), pg.calls.Load())
	assert.True(t, stopped)
	assert.Equal(t, 0, tr.Len())
}

func TestCancel_FailureStillRemovesEntry(t *testing.T) {
	tr := NewTracker(nil)
	pg := &fakePgConn{err: errors.New("connection refused")}
	require.NoError(t, tr.Register("e1", &PostgresHandle{Conn: pg}))

	res := tr.Cancel(context.Background(), "e1")
	assert.False(t, res.Cancelled)
	assert.Equal(t, "connection refused", res.Error)
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Unregister("e1"), "late completion must see the entry gone")
}

func TestCancel_ClosesConnection(t *testing.T) {
	tests := []struct {
		name   string
		handle func(c *fakeCloser, stop context.CancelFunc) Handle
	}{
		{"mysql", func(c *fakeCloser, stop context.CancelFunc) Handle { return &MySQLHandle{Conn: c, Stop: stop} }},
		{"sqlite", func(c *fakeCloser, stop context.CancelFunc) Handle { return &SQLiteHandle{Conn: c, Stop: stop} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(testutil.NewTestLogger(t))
			ctx, stop := context.WithCancel(context.Background())
			closer := newFakeCloser()
			require.NoError(t, tr.Register("e", tt.handle(closer, stop)))

			res := tr.Cancel(context.Background(), "e")
			assert.True(t, res.Cancelled)
			assert.ErrorIs(t, ctx.Err(), context.Canceled)
			select {
			case <-closer.closed:
			case <-time.After(time.Second):
				t.Fatal("connection was not closed")
			}
		})
	}
}

func TestCancel_MSSQLStopsRequestOnly(t *testing.T) {
	tr := NewTracker(nil)
	ctx, stop := context.WithCancel(context.Background())
	require.NoError(t, tr.Register("e", &MSSQLHandle{Stop: stop}))

	res := tr.Cancel(context.Background(), "e")
	assert.True(t, res.Cancelled)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestRegister_Duplicate(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Register("e", &MSSQLHandle{}))
	assert.Error(t, tr.Register("e", &MSSQLHandle{}))
	assert.Error(t, tr.Register("", &MSSQLHandle{}))
	assert.Error(t, tr.Register("x", nil))
}

func TestUnregister_Idempotent(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Register("e", &MSSQLHandle{}))
	assert.True(t, tr.Unregister("e"))
	assert.False(t, tr.Unregister("e"))
	assert.False(t, tr.Unregister("never"))
}

func TestActive_OrderedByStart(t *testing.T) {
	tr := NewTracker(nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	tr.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	require.NoError(t, tr.Register("b", &MSSQLHandle{}))
	require.NoError(t, tr.Register("a", &SQLiteHandle{}))

	active := tr.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "b", active[0].ID)
	assert.Equal(t, core.MSSQL, active[0].Dialect)
	assert.Equal(t, "a", active[1].ID)
}

func TestTracker_ConcurrentUse(t *testing.T) {
	tr := NewTracker(nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("exec-%d", i)
			_, stop := context.WithCancel(context.Background())
			assert.NoError(t, tr.Register(id, &MSSQLHandle{Stop: stop}))
			if i%2 == 0 {
				tr.Cancel(context.Background(), id)
			} else {
				tr.Unregister(id)
			}
			// a cancel racing a completion is benign
			tr.Cancel(context.Background(), id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, tr.Len())
}
