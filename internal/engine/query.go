package engine

import (
	"context"

	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/script"
)

// RunQuery splits and runs a user script.
func (e *Engine) RunQuery(ctx context.Context, sql string, opts ExecOptions) (*core.MultiStatementResult, error) {
	start := e.now()
	res, err := e.db.QueryMultiple(ctx, e.conn, sql, adapter.QueryOptions{ExecutionID: opts.ExecutionID})

	stmts := script.SplitText(sql, e.conn.DBType)
	var rows int64
	if res != nil {
		for _, r := range res.Results {
			if !r.IsDataReturning {
				rows += r.RowCount
			}
		}
	}
	e.record(ctx, history.KindQuery, opts, stmts, start, rows, err)
	return res, err
}

// Explain returns the plan of query.
func (e *Engine) Explain(ctx context.Context, query string, analyze bool) (*core.ExplainResult, error) {
	return e.db.Explain(ctx, e.conn, query, analyze)
}
