// Package sqlite provides the SQLite SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import "github.com/leapstack-labs/dbdesk/pkg/core"

// Config is the SQLite dialect configuration.
// The main database is left unqualified; attached databases are qualified.
var Config = &core.DialectConfig{
	Dialect:           core.SQLite,
	DefaultSchema:     "main",
	OmitDefaultSchema: true,
	Placeholder:       core.PlaceholderQuestion,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormCaseInsensitive,
	},
	Literals: core.LiteralConfig{
		True:        "1",
		False:       "0",
		BytesPrefix: "X'",
		BytesSuffix: "'",
	},
	Features: core.FeatureSet{
		PartialIndex: true,
		Deferrable:   true,
		Reindex:      true,
		Comments:     core.CommentNone,
	},
	DataReturning: []string{"SELECT", "WITH", "EXPLAIN", "PRAGMA", "VALUES"},
}
