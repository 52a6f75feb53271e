// Package mssql provides the SQL Server dialect definition.
// This package is pure Go with no database driver dependencies.
package mssql

import "github.com/leapstack-labs/dbdesk/pkg/core"

// Config is the SQL Server dialect configuration.
var Config = &core.DialectConfig{
	Dialect:       core.MSSQL,
	DefaultSchema: "dbo",
	Placeholder:   core.PlaceholderAtP,
	Identifiers: core.IdentifierConfig{
		Quote:         "[",
		QuoteEnd:      "]",
		Escape:        "]]",
		Normalization: core.NormCaseInsensitive,
	},
	Literals: core.LiteralConfig{
		True:         "1",
		False:        "0",
		StringPrefix: "N",
		BytesPrefix:  "0x",
	},
	Features: core.FeatureSet{
		IndexInclude:     true,
		PartialIndex:     true,
		IndexMethods:     []string{"clustered", "nonclustered"},
		ExplicitNull:     true,
		AlterColumnType:  true,
		AlterNullability: true,
		AlterDefault:     true,
		AlterConstraints: true,
		RenameConstraint: true,
		RenameIndex:      true,
		Reindex:          true,
		Comments:         core.CommentExtendedProperty,
	},
	DataReturning: []string{"SELECT", "WITH", "EXEC", "EXECUTE", "VALUES"},
}
