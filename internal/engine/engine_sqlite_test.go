package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/internal/testutil"
	"github.com/leapstack-labs/dbdesk/pkg/core"

	_ "github.com/leapstack-labs/dbdesk/pkg/adapters/sqlite"
)

func newSQLiteEngine(t *testing.T) (*Engine, *history.Store) {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e, err := New(Config{
		Connection:     testutil.TempSQLite(t),
		ConnectionName: "local",
		Logger:         testutil.NewTestLogger(t),
		History:        store,
	})
	require.NoError(t, err)
	return e, store
}

func TestEngine_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, store := newSQLiteEngine(t)
	require.NoError(t, e.Ping(ctx))

	created := e.ApplyCreateTable(ctx, &core.TableDefinition{
		Schema: "main",
		Name:   "users",
		Columns: []core.ColumnDefinition{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "name", DataType: "text", IsNullable: true},
		},
	}, ExecOptions{})
	require.True(t, created.Success, created.Errors)

	ectx, err := e.EditContext(ctx, "main", "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, ectx.PrimaryKeyColumns)

	inserted := e.ApplyEdits(ctx, &core.EditBatch{
		Context: *ectx,
		Operations: []core.EditOperation{
			&core.RowInsert{ID: "i1", Values: map[string]any{"id": 1, "name": "A"}},
			&core.RowInsert{ID: "i2", Values: map[string]any{"id": 2, "name": "B"}},
		},
	}, ExecOptions{})
	require.True(t, inserted.Success, inserted.Errors)
	assert.Equal(t, int64(2), inserted.RowsAffected)

	// The second statement violates the primary key, so the update rolls back.
	failed := e.ApplyEdits(ctx, &core.EditBatch{
		Context: *ectx,
		Operations: []core.EditOperation{
			&core.RowUpdate{
				ID:          "u1",
				PrimaryKeys: []core.PrimaryKeyValue{{Column: "id", Value: 1}},
				Changes:     []core.CellChange{{Column: "name", OldValue: "A", NewValue: "changed"}},
			},
			&core.RowInsert{ID: "dup", Values: map[string]any{"id": 2, "name": "again"}},
		},
	}, ExecOptions{})
	assert.False(t, failed.Success)
	require.Len(t, failed.Errors, 2)
	assert.Equal(t, failed.Errors[0].Message, failed.Errors[1].Message)
	assert.Equal(t, core.KindExecution, failed.Errors[0].Kind)

	res, err := e.RunQuery(ctx, "SELECT name FROM users WHERE id = 1", ExecOptions{})
	require.NoError(t, err)
	primary := res.Primary()
	require.NotNil(t, primary)
	require.Len(t, primary.Rows, 1)
	assert.Equal(t, "A", primary.Rows[0][0])

	dropped := e.ApplyDrop(ctx, "main", "users", core.DropOptions{IfExists: true}, ExecOptions{})
	require.True(t, dropped.Success, dropped.Errors)

	entries, err := store.List(ctx, history.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, history.KindDDL, entries[0].Kind)
	assert.Equal(t, history.KindQuery, entries[1].Kind)

	failures, err := store.List(ctx, history.Filter{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, history.KindEdit, failures[0].Kind)
	assert.Equal(t, "local", failures[0].Connection)
}
