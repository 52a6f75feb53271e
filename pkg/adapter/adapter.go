// Package adapter defines the contract every database backend implements
// and the shared database/sql machinery the backends build on.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// QueryOptions controls a QueryMultiple call.
type QueryOptions struct {
	// ExecutionID registers the run with the cancellation tracker when set.
	ExecutionID string
}

// TxOptions controls an ExecuteTransaction call.
type TxOptions struct {
	ExecutionID string
}

// Adapter is the uniform access contract for one backend.
// Every method takes the connection config and holds no state between calls.
type Adapter interface {
	// Dialect returns the dialect this adapter serves.
	Dialect() core.Dialect

	// Connect checks that the target is reachable and the credentials work.
	Connect(ctx context.Context, cfg core.ConnectionConfig) error

	// QueryMultiple splits a user script and runs each statement in order.
	QueryMultiple(ctx context.Context, cfg core.ConnectionConfig, sql string, opts QueryOptions) (*core.MultiStatementResult, error)

	// ExecuteTransaction runs the queries in one transaction, all or nothing.
	ExecuteTransaction(ctx context.Context, cfg core.ConnectionConfig, queries []core.ParameterizedQuery, opts TxOptions) (*core.TxResult, error)

	// GetSchemas lists schemas with their tables and views.
	GetSchemas(ctx context.Context, cfg core.ConnectionConfig) ([]core.SchemaInfo, error)

	// GetTypes lists user-visible data types.
	GetTypes(ctx context.Context, cfg core.ConnectionConfig) ([]core.TypeInfo, error)

	// GetSequences lists sequences. Backends without sequences return none.
	GetSequences(ctx context.Context, cfg core.ConnectionConfig) ([]core.SequenceInfo, error)

	// GetTableDDL reverse-engineers the CREATE statement of a table.
	GetTableDDL(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (string, error)

	// Explain returns the plan of a query, executing it when analyze is set.
	Explain(ctx context.Context, cfg core.ConnectionConfig, query string, analyze bool) (*core.ExplainResult, error)

	// GetEditContext introspects the columns and primary key of a table.
	GetEditContext(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error)
}
