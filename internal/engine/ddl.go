package engine

import (
	"context"
	"errors"

	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/ddl"
)

// PreviewDDL returns the CREATE script for def.
func (e *Engine) PreviewDDL(def *core.TableDefinition) (string, error) {
	return ddl.PreviewDDL(def, e.conn.DBType)
}

// PreviewAlter returns the statements an alter batch compiles to. The
// statements that did compile are returned alongside any error.
func (e *Engine) PreviewAlter(batch *core.AlterTableBatch) ([]string, error) {
	if v := ddl.ValidateAlterTableBatch(batch); !v.Valid {
		return []string{}, validationErrors(v)
	}
	plan := ddl.AlterTable(batch, e.conn.DBType)
	return plan.SQL(), errors.Join(plan.Errors...)
}

// PreviewDrop returns the DROP TABLE statement.
func (e *Engine) PreviewDrop(schema, table string, opts core.DropOptions) (string, error) {
	stmt, err := ddl.DropTable(schema, table, opts, e.conn.DBType)
	return stmt.SQL, err
}

// TableDDL reverse-engineers the CREATE statement of an existing table.
func (e *Engine) TableDDL(ctx context.Context, schema, table string) (string, error) {
	return e.db.GetTableDDL(ctx, e.conn, schema, table)
}

// ApplyCreateTable validates, compiles and executes a table definition.
func (e *Engine) ApplyCreateTable(ctx context.Context, def *core.TableDefinition, opts ExecOptions) *core.DDLResult {
	if v := ddl.ValidateTableDefinition(def); !v.Valid {
		return &core.DDLResult{ExecutedSQL: []string{}, Errors: v.Errors}
	}
	res, err := ddl.CreateTable(def, e.conn.DBType)
	if err != nil {
		return &core.DDLResult{ExecutedSQL: []string{}, Errors: []string{err.Error()}}
	}
	return e.execDDL(ctx, statementSQL(res.Statements), opts)
}

// ApplyAlter validates, compiles and executes an alter batch. Nothing runs
// when any operation fails to validate or compile.
func (e *Engine) ApplyAlter(ctx context.Context, batch *core.AlterTableBatch, opts ExecOptions) *core.DDLResult {
	if v := ddl.ValidateAlterTableBatch(batch); !v.Valid {
		return &core.DDLResult{ExecutedSQL: []string{}, Errors: v.Errors}
	}
	plan := ddl.AlterTable(batch, e.conn.DBType)
	if len(plan.Errors) > 0 {
		msgs := make([]string, len(plan.Errors))
		for i, err := range plan.Errors {
			msgs[i] = err.Error()
		}
		return &core.DDLResult{ExecutedSQL: plan.SQL(), Errors: msgs}
	}
	if len(plan.Statements) == 0 {
		return &core.DDLResult{Success: true, ExecutedSQL: []string{}}
	}
	return e.execDDL(ctx, plan.SQL(), opts)
}

// ApplyDrop drops a table.
func (e *Engine) ApplyDrop(ctx context.Context, schema, table string, drop core.DropOptions, opts ExecOptions) *core.DDLResult {
	stmt, err := ddl.DropTable(schema, table, drop, e.conn.DBType)
	if err != nil {
		return &core.DDLResult{ExecutedSQL: []string{}, Errors: []string{err.Error()}}
	}
	return e.execDDL(ctx, []string{stmt.SQL}, opts)
}

func (e *Engine) execDDL(ctx context.Context, stmts []string, opts ExecOptions) *core.DDLResult {
	queries := make([]core.ParameterizedQuery, len(stmts))
	for i, s := range stmts {
		queries[i] = core.ParameterizedQuery{SQL: s}
	}

	start := e.now()
	tx, err := e.db.ExecuteTransaction(ctx, e.conn, queries, adapter.TxOptions{ExecutionID: opts.ExecutionID})
	if err != nil {
		e.record(ctx, history.KindDDL, opts, stmts, start, 0, err)
		return &core.DDLResult{ExecutedSQL: stmts, Errors: []string{err.Error()}}
	}
	e.record(ctx, history.KindDDL, opts, stmts, start, tx.RowsAffected, nil)
	return &core.DDLResult{Success: true, ExecutedSQL: stmts}
}

func statementSQL(stmts []ddl.Statement) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = s.SQL
	}
	return out
}

func validationErrors(v ddl.ValidationResult) error {
	errs := make([]error, len(v.Errors))
	for i, msg := range v.Errors {
		errs[i] = &core.ValidationError{Message: msg}
	}
	return errors.Join(errs...)
}
