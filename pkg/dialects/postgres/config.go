// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import "github.com/leapstack-labs/dbdesk/pkg/core"

// Config is the PostgreSQL dialect configuration.
// This is pure data - read by the DML and DDL compilers and the adapter.
var Config = &core.DialectConfig{
	Dialect:       core.PostgreSQL,
	DefaultSchema: "public",
	Placeholder:   core.PlaceholderDollar,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormLowercase, // Postgres normalizes unquoted to lowercase
	},
	Literals: core.LiteralConfig{
		True:        "TRUE",
		False:       "FALSE",
		BytesPrefix: `'\x`,
		BytesSuffix: `'`,
	},
	Features: core.FeatureSet{
		ConcurrentIndex:    true,
		Partitioning:       true,
		Inherits:           true,
		Tablespace:         true,
		Unlogged:           true,
		ExcludeConstraints: true,
		Arrays:             true,
		NullsOrdering:      true,
		IndexInclude:       true,
		PartialIndex:       true,
		IndexMethods:       []string{"btree", "hash", "gist", "spgist", "gin", "brin"},
		Deferrable:         true,
		Cascade:            true,
		AlterColumnType:    true,
		AlterNullability:   true,
		AlterDefault:       true,
		AlterConstraints:   true,
		RenameConstraint:   true,
		RenameIndex:        true,
		Reindex:            true,
		Comments:           core.CommentOnStatement,
	},
	DataReturning: []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES", "TABLE", "FETCH"},
}
