// Package dialect provides the runtime rules for each supported SQL dialect:
// identifier quoting, placeholder generation, literal formatting and data
// type rendering. The static data lives in pkg/dialects/<name>.Config.
package dialect

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialects/mssql"
	"github.com/leapstack-labs/dbdesk/pkg/dialects/mysql"
	"github.com/leapstack-labs/dbdesk/pkg/dialects/postgres"
	"github.com/leapstack-labs/dbdesk/pkg/dialects/sqlite"
)

// Rules wraps a dialect configuration with the behavior derived from it.
// Rules values are immutable and safe for concurrent use.
type Rules struct {
	cfg *core.DialectConfig
}

var (
	postgresRules = New(postgres.Config)
	mysqlRules    = New(mysql.Config)
	sqliteRules   = New(sqlite.Config)
	mssqlRules    = New(mssql.Config)
)

// New creates Rules for a dialect configuration.
func New(cfg *core.DialectConfig) *Rules {
	return &Rules{cfg: cfg}
}

// For returns the rules of a supported dialect.
// It panics for a value outside the closed Dialect set.
func For(d core.Dialect) *Rules {
	switch d {
	case core.PostgreSQL:
		return postgresRules
	case core.MySQL:
		return mysqlRules
	case core.SQLite:
		return sqliteRules
	case core.MSSQL:
		return mssqlRules
	default:
		core.UnreachableDialect(d)
		return nil
	}
}

// Dialect returns the dialect identifier.
func (r *Rules) Dialect() core.Dialect {
	return r.cfg.Dialect
}

// Config returns the pure data configuration for this dialect.
func (r *Rules) Config() *core.DialectConfig {
	return r.cfg
}

// Features returns the DDL capabilities of the dialect.
func (r *Rules) Features() core.FeatureSet {
	return r.cfg.Features
}

// DefaultSchema returns the schema assumed when none is given.
func (r *Rules) DefaultSchema() string {
	return r.cfg.DefaultSchema
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1" for PlaceholderDollar and "@p1" for PlaceholderAtP.
func (r *Rules) FormatPlaceholder(index int) string {
	switch r.cfg.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	case core.PlaceholderAtP:
		return "@p" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (r *Rules) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, r.cfg.Identifiers.QuoteEnd, r.cfg.Identifiers.Escape)
	return r.cfg.Identifiers.Quote + escaped + r.cfg.Identifiers.QuoteEnd
}

// QualifiedName quotes schema and name and joins them with a dot.
// An empty schema yields just the quoted name, as does the default schema
// of dialects that omit it (SQLite main).
func (r *Rules) QualifiedName(schema, name string) string {
	if schema == "" || (r.cfg.OmitDefaultSchema && strings.EqualFold(schema, r.cfg.DefaultSchema)) {
		return r.QuoteIdentifier(name)
	}
	return r.QuoteIdentifier(schema) + "." + r.QuoteIdentifier(name)
}

// QuoteIdentifiers quotes each name and joins them with ", ".
func (r *Rules) QuoteIdentifiers(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = r.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// NormalizeName normalizes an identifier for comparison.
func (r *Rules) NormalizeName(name string) string {
	switch r.cfg.Identifiers.Normalization {
	case core.NormCaseSensitive:
		return name
	default:
		return strings.ToLower(name)
	}
}

// SupportsIndexMethod reports whether method is a valid index method for the dialect.
func (r *Rules) SupportsIndexMethod(method string) bool {
	for _, m := range r.cfg.Features.IndexMethods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}

// IsDataReturningKeyword reports whether a statement starting with keyword
// produces a result set.
func (r *Rules) IsDataReturningKeyword(keyword string) bool {
	for _, k := range r.cfg.DataReturning {
		if strings.EqualFold(k, keyword) {
			return true
		}
	}
	return false
}
