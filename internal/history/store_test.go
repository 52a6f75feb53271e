package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_MigratesToLatest(t *testing.T) {
	s := openTestStore(t)

	v, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestStore_RecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e := &Entry{
		Kind:         KindEdit,
		Connection:   "local",
		Dialect:      core.PostgreSQL,
		Statements:   []string{`UPDATE "public"."users" SET "name" = 'a' WHERE "id" = 1`},
		Success:      true,
		RowsAffected: 1,
		DurationMs:   2.5,
	}
	require.NoError(t, s.Record(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.StartedAt.IsZero())

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Kind, got.Kind)
	assert.Equal(t, e.Connection, got.Connection)
	assert.Equal(t, e.Dialect, got.Dialect)
	assert.Equal(t, e.Statements, got.Statements)
	assert.True(t, got.Success)
	assert.Equal(t, int64(1), got.RowsAffected)
	assert.InDelta(t, 2.5, got.DurationMs, 0.001)
	assert.True(t, e.StartedAt.Equal(got.StartedAt))
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.Error(t, err)
}

func TestStore_ListFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{Kind: KindQuery, Dialect: core.SQLite, Statements: []string{"SELECT 1"}, Success: true, StartedAt: base},
		{Kind: KindDDL, Dialect: core.MySQL, Statements: []string{"DROP TABLE t"}, Error: "boom", StartedAt: base.Add(time.Minute)},
		{Kind: KindQuery, Dialect: core.MySQL, Statements: nil, Cancelled: true, Error: "execution was cancelled", StartedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, s.Record(ctx, e))
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entries[2].ID, all[0].ID, "newest first")
	assert.Equal(t, []string{}, all[0].Statements)
	assert.True(t, all[0].Cancelled)

	queries, err := s.List(ctx, Filter{Kind: KindQuery})
	require.NoError(t, err)
	assert.Len(t, queries, 2)

	mysql, err := s.List(ctx, Filter{Dialect: core.MySQL, FailedOnly: true})
	require.NoError(t, err)
	assert.Len(t, mysql, 2)

	limited, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, entries[2].ID, limited[0].ID)
}

func TestStore_Prune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, s.Record(ctx, &Entry{
			Kind:      KindQuery,
			Dialect:   core.SQLite,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	removed, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	left, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.True(t, left[0].StartedAt.Equal(base.Add(4*time.Second)))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}
