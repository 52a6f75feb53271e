package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/internal/testutil"
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// fakeAdapter records transactions and fails on demand.
type fakeAdapter struct {
	dialect core.Dialect
	txErr   error
	metaErr error

	mu      sync.Mutex
	txs     [][]core.ParameterizedQuery
	scripts []string
}

func (f *fakeAdapter) Dialect() core.Dialect { return f.dialect }

func (f *fakeAdapter) Connect(context.Context, core.ConnectionConfig) error { return f.metaErr }

func (f *fakeAdapter) QueryMultiple(_ context.Context, _ core.ConnectionConfig, sql string, _ adapter.QueryOptions) (*core.MultiStatementResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, sql)
	return &core.MultiStatementResult{
		Results: []core.StatementResult{
			{Statement: "UPDATE t SET a = 1", RowCount: 3},
			{Statement: "SELECT 1", StatementIndex: 1, IsDataReturning: true, RowCount: 1},
		},
		StatementCount: 2,
	}, nil
}

func (f *fakeAdapter) ExecuteTransaction(_ context.Context, _ core.ConnectionConfig, queries []core.ParameterizedQuery, _ adapter.TxOptions) (*core.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs = append(f.txs, queries)
	if f.txErr != nil {
		return nil, f.txErr
	}
	return &core.TxResult{RowsAffected: int64(len(queries))}, nil
}

func (f *fakeAdapter) GetSchemas(context.Context, core.ConnectionConfig) ([]core.SchemaInfo, error) {
	return []core.SchemaInfo{{Name: "public", Tables: []string{"users"}}}, f.metaErr
}

func (f *fakeAdapter) GetTypes(context.Context, core.ConnectionConfig) ([]core.TypeInfo, error) {
	return []core.TypeInfo{{Name: "mood", Kind: "enum"}}, nil
}

func (f *fakeAdapter) GetSequences(context.Context, core.ConnectionConfig) ([]core.SequenceInfo, error) {
	return []core.SequenceInfo{{Schema: "public", Name: "users_id_seq"}}, nil
}

func (f *fakeAdapter) GetTableDDL(_ context.Context, _ core.ConnectionConfig, schema, table string) (string, error) {
	return fmt.Sprintf("CREATE TABLE %s.%s ();", schema, table), nil
}

func (f *fakeAdapter) Explain(context.Context, core.ConnectionConfig, string, bool) (*core.ExplainResult, error) {
	return &core.ExplainResult{Plan: "[]", Format: "json"}, nil
}

func (f *fakeAdapter) GetEditContext(_ context.Context, _ core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	return &core.EditContext{Schema: schema, Table: table, PrimaryKeyColumns: []string{"id"}}, nil
}

// memRecorder keeps history entries in memory.
type memRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memRecorder) Record(_ context.Context, e *history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func newFakeEngine(t *testing.T, d core.Dialect) (*Engine, *fakeAdapter, *memRecorder) {
	t.Helper()
	fa := &fakeAdapter{dialect: d}
	rec := &memRecorder{}
	e, err := New(Config{
		Connection:     core.ConnectionConfig{DBType: d},
		ConnectionName: "test",
		Logger:         testutil.NewTestLogger(t),
		History:        rec,
		Adapter:        fa,
	})
	require.NoError(t, err)
	return e, fa, rec
}

func usersBatch(ops ...core.EditOperation) *core.EditBatch {
	return &core.EditBatch{
		Context: core.EditContext{
			Schema:            "public",
			Table:             "users",
			PrimaryKeyColumns: []string{"id"},
			Columns: []core.ColumnInfo{
				{Name: "id", DataType: "integer", IsPrimaryKey: true, OrdinalPosition: 1},
				{Name: "name", DataType: "text", IsNullable: true, OrdinalPosition: 2},
			},
		},
		Operations: ops,
	}
}

func update(id string, pk any, name string) *core.RowUpdate {
	return &core.RowUpdate{
		ID:          id,
		PrimaryKeys: []core.PrimaryKeyValue{{Column: "id", Value: pk, DataType: "integer"}},
		Changes:     []core.CellChange{{Column: "name", OldValue: "A", NewValue: name, DataType: "text"}},
	}
}

func TestNew_InvalidDialect(t *testing.T) {
	_, err := New(Config{Connection: core.ConnectionConfig{DBType: "oracle"}})
	assert.Error(t, err)
}

func TestApplyEdits_PartialValidation(t *testing.T) {
	e, fa, rec := newFakeEngine(t, core.PostgreSQL)

	batch := usersBatch(
		update("op1", 1, "B"),
		&core.RowUpdate{ID: "op2", PrimaryKeys: []core.PrimaryKeyValue{{Column: "id", Value: 2}}},
		&core.RowDelete{ID: "op3", PrimaryKeys: []core.PrimaryKeyValue{{Column: "id", Value: 3}}},
	)

	res := e.ApplyEdits(context.Background(), batch, ExecOptions{})

	assert.True(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "op2", res.Errors[0].OperationID)
	assert.Equal(t, core.KindValidation, res.Errors[0].Kind)
	assert.Equal(t, []string{
		`UPDATE "public"."users" SET "name" = 'B' WHERE "id" = 1`,
		`DELETE FROM "public"."users" WHERE "id" = 3`,
	}, res.ExecutedSQL)
	assert.Equal(t, int64(2), res.RowsAffected)

	require.Len(t, fa.txs, 1)
	require.Len(t, fa.txs[0], 2)
	assert.Equal(t, `UPDATE "public"."users" SET "name" = $1 WHERE "id" = $2`, fa.txs[0][0].SQL)
	assert.Equal(t, []any{"B", 1}, fa.txs[0][0].Params)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, history.KindEdit, rec.entries[0].Kind)
	assert.True(t, rec.entries[0].Success)
	assert.Equal(t, "test", rec.entries[0].Connection)
}

func TestApplyEdits_AllInvalidSkipsExecution(t *testing.T) {
	e, fa, rec := newFakeEngine(t, core.MySQL)

	batch := usersBatch(
		&core.RowDelete{ID: "a"},
		&core.RowInsert{ID: "b"},
	)
	res := e.ApplyEdits(context.Background(), batch, ExecOptions{})

	assert.False(t, res.Success)
	assert.Len(t, res.Errors, 2)
	assert.Empty(t, res.ExecutedSQL)
	assert.Empty(t, fa.txs)
	assert.Empty(t, rec.entries)
}

func TestApplyEdits_EmptyBatch(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.SQLite)

	res := e.ApplyEdits(context.Background(), usersBatch(), ExecOptions{})

	assert.True(t, res.Success)
	assert.Empty(t, res.Errors)
	assert.Empty(t, fa.txs)
}

func TestApplyEdits_TransactionFailureMarksEveryOperation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind core.ErrorKind
	}{
		{
			name: "execution",
			err:  &core.ExecutionError{Index: 1, Err: errors.New("duplicate key")},
			kind: core.KindExecution,
		},
		{
			name: "cancelled",
			err:  core.ErrExecutionCancelled,
			kind: core.KindCancellation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, fa, rec := newFakeEngine(t, core.MSSQL)
			fa.txErr = tt.err

			res := e.ApplyEdits(context.Background(), usersBatch(update("u1", 1, "x"), update("u2", 2, "y")), ExecOptions{ExecutionID: "exec-1"})

			assert.False(t, res.Success)
			assert.Len(t, res.ExecutedSQL, 2, "previews are reported even on failure")
			require.Len(t, res.Errors, 2)
			for i, id := range []string{"u1", "u2"} {
				assert.Equal(t, id, res.Errors[i].OperationID)
				assert.Equal(t, tt.err.Error(), res.Errors[i].Message)
				assert.Equal(t, tt.kind, res.Errors[i].Kind)
			}

			require.Len(t, rec.entries, 1)
			assert.False(t, rec.entries[0].Success)
			assert.Equal(t, "exec-1", rec.entries[0].ExecutionID)
			assert.Equal(t, tt.kind == core.KindCancellation, rec.entries[0].Cancelled)
		})
	}
}

func TestPreviewEdits(t *testing.T) {
	e, _, _ := newFakeEngine(t, core.SQLite)

	sql, errs := e.PreviewEdits(usersBatch(&core.RowInsert{ID: "i", Values: map[string]any{"id": 1, "name": "x"}}))

	assert.Empty(t, errs)
	assert.Equal(t, []string{`INSERT INTO "public"."users" ("id","name") VALUES (1, 'x')`}, sql)
}

func TestApplyCreateTable(t *testing.T) {
	e, fa, rec := newFakeEngine(t, core.PostgreSQL)

	def := &core.TableDefinition{
		Schema: "public",
		Name:   "users",
		Columns: []core.ColumnDefinition{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "email", DataType: "text"},
		},
		Indexes: []core.IndexDefinition{{Columns: []core.IndexColumn{{Name: "email"}}}},
	}

	res := e.ApplyCreateTable(context.Background(), def, ExecOptions{})

	require.True(t, res.Success, res.Errors)
	require.Len(t, res.ExecutedSQL, 2)
	assert.Contains(t, res.ExecutedSQL[0], `CREATE TABLE "public"."users"`)
	assert.Contains(t, res.ExecutedSQL[1], "CREATE INDEX")
	require.Len(t, fa.txs, 1)
	assert.Len(t, fa.txs[0], 2)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, history.KindDDL, rec.entries[0].Kind)
}

func TestApplyCreateTable_Invalid(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.PostgreSQL)

	res := e.ApplyCreateTable(context.Background(), &core.TableDefinition{Schema: "public"}, ExecOptions{})

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Errors)
	assert.Empty(t, res.ExecutedSQL)
	assert.Empty(t, fa.txs)
}

func TestApplyAlter_CompileErrorBlocksExecution(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.SQLite)

	batch := &core.AlterTableBatch{
		Schema: "main",
		Table:  "users",
		ColumnOperations: []core.AlterColumnOperation{
			{Type: core.AlterColumnAdd, Column: &core.ColumnDefinition{Name: "age", DataType: "integer", IsNullable: true}},
			{Type: core.AlterColumnSetType, ColumnName: "name", DataType: "varchar(10)"},
		},
	}

	res := e.ApplyAlter(context.Background(), batch, ExecOptions{})

	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "column operation 2")
	assert.Equal(t, []string{`ALTER TABLE "users" ADD COLUMN "age" INTEGER`}, res.ExecutedSQL)
	assert.Empty(t, fa.txs)
}

func TestApplyAlter_MySQL(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.MySQL)

	batch := &core.AlterTableBatch{
		Schema: "public",
		Table:  "users",
		ColumnOperations: []core.AlterColumnOperation{
			{Type: core.AlterColumnAdd, Column: &core.ColumnDefinition{Name: "age", DataType: "integer", IsNullable: true}},
		},
	}

	res := e.ApplyAlter(context.Background(), batch, ExecOptions{})

	require.True(t, res.Success, res.Errors)
	assert.Equal(t, []string{"ALTER TABLE `public`.`users` ADD COLUMN `age` INTEGER NULL"}, res.ExecutedSQL)
	require.Len(t, fa.txs, 1)
}

func TestPreviewAlter_Invalid(t *testing.T) {
	e, _, _ := newFakeEngine(t, core.PostgreSQL)

	stmts, err := e.PreviewAlter(&core.AlterTableBatch{Schema: "public"})

	assert.Empty(t, stmts)
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestApplyDrop(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.PostgreSQL)

	res := e.ApplyDrop(context.Background(), "public", "users", core.DropOptions{Cascade: true, IfExists: true}, ExecOptions{})

	require.True(t, res.Success)
	assert.Equal(t, []string{`DROP TABLE IF EXISTS "public"."users" CASCADE`}, res.ExecutedSQL)
	require.Len(t, fa.txs, 1)

	sql, err := e.PreviewDrop("public", "users", core.DropOptions{})
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE "public"."users"`, sql)
}

func TestApplyDrop_FailureKeepsSQL(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.MSSQL)
	fa.txErr = &core.ExecutionError{Err: errors.New("table is referenced")}

	res := e.ApplyDrop(context.Background(), "dbo", "users", core.DropOptions{}, ExecOptions{})

	assert.False(t, res.Success)
	assert.Equal(t, []string{"DROP TABLE [dbo].[users]"}, res.ExecutedSQL)
	assert.Equal(t, []string{"statement 1 failed: table is referenced"}, res.Errors)
}

func TestRunQuery_RecordsHistory(t *testing.T) {
	e, fa, rec := newFakeEngine(t, core.PostgreSQL)

	res, err := e.RunQuery(context.Background(), "UPDATE t SET a = 1; SELECT 1", ExecOptions{ExecutionID: "q1"})

	require.NoError(t, err)
	assert.Equal(t, 2, res.StatementCount)
	assert.Equal(t, []string{"UPDATE t SET a = 1; SELECT 1"}, fa.scripts)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, history.KindQuery, rec.entries[0].Kind)
	assert.Equal(t, []string{"UPDATE t SET a = 1", "SELECT 1"}, rec.entries[0].Statements)
	assert.Equal(t, int64(3), rec.entries[0].RowsAffected)
}

func TestCatalog(t *testing.T) {
	e, _, _ := newFakeEngine(t, core.PostgreSQL)

	cat, err := e.Catalog(context.Background())

	require.NoError(t, err)
	assert.Len(t, cat.Schemas, 1)
	assert.Len(t, cat.Types, 1)
	assert.Len(t, cat.Sequences, 1)
}

func TestCatalog_Error(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.PostgreSQL)
	fa.metaErr = errors.New("permission denied")

	_, err := e.Catalog(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list schemas")
}

func TestPing(t *testing.T) {
	e, fa, _ := newFakeEngine(t, core.MySQL)
	require.NoError(t, e.Ping(context.Background()))

	fa.metaErr = errors.New("access denied")
	err := e.Ping(context.Background())
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestCancel_Unknown(t *testing.T) {
	e, _, _ := newFakeEngine(t, core.PostgreSQL)

	res := e.Cancel(context.Background(), "missing")

	assert.False(t, res.Cancelled)
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, e.Active())
}
