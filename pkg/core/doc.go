// Package core defines the shared language of the dbdesk system.
//
// This package contains:
//   - The closed Dialect enumeration and its static configuration
//   - Row edit types (EditContext, EditOperation, EditBatch, EditResult)
//   - Table definition types (TableDefinition, AlterTableBatch, DDLResult)
//   - Execution results (StatementResult, MultiStatementResult)
//   - Connection configuration and introspection results
//   - The error taxonomy shared by compilers, adapters and the engine
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
