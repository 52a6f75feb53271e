package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want core.Dialect
	}{
		{"postgresql", core.PostgreSQL},
		{"Postgres", core.PostgreSQL},
		{"pg", core.PostgreSQL},
		{"mysql", core.MySQL},
		{"mariadb", core.MySQL},
		{"sqlite3", core.SQLite},
		{" sqlite ", core.SQLite},
		{"sqlserver", core.MSSQL},
		{"MSSQL", core.MSSQL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := core.ParseDialect(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}

	_, err := core.ParseDialect("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database type "oracle"`)
}

func TestDialects(t *testing.T) {
	assert.Equal(t, []core.Dialect{core.PostgreSQL, core.MySQL, core.SQLite, core.MSSQL}, core.Dialects())
	assert.False(t, core.Dialect("duckdb").Valid())
	assert.Panics(t, func() { core.UnreachableDialect("duckdb") })
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want core.ErrorKind
	}{
		{"validation", &core.ValidationError{Subject: "op1", Message: "no changes"}, core.KindValidation},
		{"compile", core.Unsupported(core.SQLite, "ALTER COLUMN TYPE"), core.KindCompile},
		{"wrapped compile", fmt.Errorf("column operation 1: %w", core.Unsupported(core.SQLite, "x")), core.KindCompile},
		{"cancel request", &core.CancellationError{ExecutionID: "e1", Message: "not found"}, core.KindCancellation},
		{"cancelled", core.ErrExecutionCancelled, core.KindCancellation},
		{"cancelled inside execution", &core.ExecutionError{Index: 0, Err: core.ErrExecutionCancelled}, core.KindCancellation},
		{"execution", &core.ExecutionError{Index: 2, Err: errors.New("boom")}, core.KindExecution},
		{"plain", context.DeadlineExceeded, core.KindExecution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "op1: no changes", (&core.ValidationError{Subject: "op1", Message: "no changes"}).Error())
	assert.Equal(t, "no changes", (&core.ValidationError{Message: "no changes"}).Error())
	assert.Equal(t, "sqlite does not support ALTER COLUMN TYPE", core.Unsupported(core.SQLite, "ALTER COLUMN TYPE").Error())

	inner := errors.New("duplicate key")
	execErr := &core.ExecutionError{Index: 1, Statement: "INSERT ...", Err: inner}
	assert.Equal(t, "statement 2 failed: duplicate key", execErr.Error())
	assert.ErrorIs(t, execErr, inner)
}

func TestPrimary(t *testing.T) {
	var empty *core.MultiStatementResult
	assert.Nil(t, empty.Primary())

	res := &core.MultiStatementResult{Results: []core.StatementResult{
		{StatementIndex: 0, RowCount: 3},
		{StatementIndex: 1, IsDataReturning: true},
		{StatementIndex: 2, IsDataReturning: true},
	}}
	require.NotNil(t, res.Primary())
	assert.Equal(t, 1, res.Primary().StatementIndex)

	noData := &core.MultiStatementResult{Results: []core.StatementResult{{StatementIndex: 0}}}
	assert.Equal(t, 0, noData.Primary().StatementIndex)
}

func TestEditOperations(t *testing.T) {
	ops := []core.EditOperation{
		&core.RowUpdate{ID: "u"},
		&core.RowInsert{ID: "i"},
		&core.RowDelete{ID: "d"},
	}
	kinds := []core.OperationKind{core.OpUpdate, core.OpInsert, core.OpDelete}
	for i, op := range ops {
		assert.Equal(t, kinds[i], op.Kind())
	}
	assert.Equal(t, "i", ops[1].OperationID())

	ctx := core.EditContext{Columns: []core.ColumnInfo{{Name: "id", IsPrimaryKey: true}}}
	col, ok := ctx.Column("id")
	assert.True(t, ok)
	assert.True(t, col.IsPrimaryKey)
	_, ok = ctx.Column("missing")
	assert.False(t, ok)
}

func TestAlterColumnOperationTarget(t *testing.T) {
	add := core.AlterColumnOperation{Type: core.AlterColumnAdd, Column: &core.ColumnDefinition{Name: "note"}}
	assert.Equal(t, "note", add.Target())

	drop := core.AlterColumnOperation{Type: core.AlterColumnDrop, ColumnName: "legacy"}
	assert.Equal(t, "legacy", drop.Target())
}
