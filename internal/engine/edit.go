package engine

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dml"
)

// EditContext introspects a table for building edit batches.
func (e *Engine) EditContext(ctx context.Context, schema, table string) (*core.EditContext, error) {
	return e.db.GetEditContext(ctx, e.conn, schema, table)
}

// PreviewEdits returns the literal statements a batch would run.
func (e *Engine) PreviewEdits(batch *core.EditBatch) ([]string, []core.OperationError) {
	return dml.BuildPreviewSQL(batch, e.conn.DBType)
}

// ApplyEdits compiles the batch and runs every compiled operation in one
// transaction. Invalid operations are reported and skipped; the batch is
// not executed only when nothing compiled. A failed transaction marks every
// included operation failed with the same message.
func (e *Engine) ApplyEdits(ctx context.Context, batch *core.EditBatch, opts ExecOptions) *core.EditResult {
	plan := dml.BuildBatch(batch, e.conn.DBType)
	res := &core.EditResult{
		ExecutedSQL: plan.Previews(),
		Errors:      plan.Errors,
	}

	if len(plan.Statements) == 0 {
		res.Success = len(plan.Errors) == 0
		return res
	}

	start := e.now()
	tx, err := e.db.ExecuteTransaction(ctx, e.conn, plan.Queries(), adapter.TxOptions{ExecutionID: opts.ExecutionID})
	if err != nil {
		kind := core.KindOf(err)
		for _, id := range plan.OperationIDs() {
			res.Errors = append(res.Errors, core.OperationError{OperationID: id, Message: err.Error(), Kind: kind})
		}
		e.logger.Debug("edit batch failed",
			slog.String("execution_id", opts.ExecutionID),
			slog.String("error", err.Error()))
		e.record(ctx, history.KindEdit, opts, res.ExecutedSQL, start, 0, err)
		return res
	}

	res.Success = true
	res.RowsAffected = tx.RowsAffected
	e.record(ctx, history.KindEdit, opts, res.ExecutedSQL, start, tx.RowsAffected, nil)
	return res
}
