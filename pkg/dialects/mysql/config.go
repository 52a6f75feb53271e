// Package mysql provides the MySQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package mysql

import "github.com/leapstack-labs/dbdesk/pkg/core"

// Config is the MySQL dialect configuration.
// MySQL has no schemas distinct from databases, so the schema slot
// of a qualified name holds the database.
var Config = &core.DialectConfig{
	Dialect:     core.MySQL,
	Placeholder: core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseSensitive,
	},
	Literals: core.LiteralConfig{
		True:            "1",
		False:           "0",
		BackslashEscape: true,
		BytesPrefix:     "X'",
		BytesSuffix:     "'",
	},
	Features: core.FeatureSet{
		IndexMethods:     []string{"btree", "hash"},
		ExplicitNull:     true,
		AlterColumnType:  true,
		AlterNullability: true,
		AlterDefault:     true,
		AlterConstraints: true,
		RenameIndex:      true,
		Comments:         core.CommentInline,
	},
	DataReturning: []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "DESCRIBE", "DESC", "VALUES", "TABLE", "CALL"},
}
