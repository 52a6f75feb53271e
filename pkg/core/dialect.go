package core

import (
	"fmt"
	"strings"
)

// Dialect identifies one of the supported SQL flavors.
// The set is closed: every switch over Dialect must handle all four values.
type Dialect string

// Supported dialects.
const (
	PostgreSQL Dialect = "postgresql"
	MySQL      Dialect = "mysql"
	SQLite     Dialect = "sqlite"
	MSSQL      Dialect = "mssql"
)

// Dialects returns every supported dialect in a stable order.
func Dialects() []Dialect {
	return []Dialect{PostgreSQL, MySQL, SQLite, MSSQL}
}

// String returns the dialect identifier.
func (d Dialect) String() string {
	return string(d)
}

// Valid reports whether d is one of the supported dialects.
func (d Dialect) Valid() bool {
	switch d {
	case PostgreSQL, MySQL, SQLite, MSSQL:
		return true
	default:
		return false
	}
}

// ParseDialect converts a user supplied database type into a Dialect.
// Common aliases ("postgres", "pg", "sqlserver", "sqlite3") are accepted.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres", "pg":
		return PostgreSQL, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	default:
		return "", fmt.Errorf("unknown database type %q (expected one of %v)", s, Dialects())
	}
}

// UnreachableDialect panics for a dialect value outside the closed set.
// It is used as the default branch of exhaustive switches.
func UnreachableDialect(d Dialect) {
	panic(fmt.Sprintf("core: unsupported dialect %q", string(d)))
}

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data — no handler functions.
//
// The runtime behavior (quoting, placeholders, literals) lives in
// pkg/dialect.Rules, which wraps this config.
type DialectConfig struct {
	// Dialect is the dialect identifier
	Dialect Dialect

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultSchema is the default schema name ("public" for Postgres, "dbo" for SQL Server)
	DefaultSchema string

	// OmitDefaultSchema drops the schema from qualified names when it equals DefaultSchema (SQLite)
	OmitDefaultSchema bool

	// Placeholder defines how query parameters are formatted
	Placeholder PlaceholderStyle

	// Literals defines how preview literals are rendered
	Literals LiteralConfig

	// Features lists the DDL capabilities of the dialect
	Features FeatureSet

	// Keywords starting statements that return rows
	DataReturning []string
}

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
	// PlaceholderAtP uses @p1, @p2, etc. for parameters (SQL Server).
	PlaceholderAtP
)

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormCaseSensitive preserves identifier case exactly (MySQL on case-sensitive filesystems).
	NormCaseSensitive
	// NormCaseInsensitive compares identifiers case-insensitively (SQLite, SQL Server).
	NormCaseInsensitive
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Escape        string                // Escape sequence: "", ``, ]]
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}

// LiteralConfig describes how values are rendered as SQL literals for previews.
type LiteralConfig struct {
	True            string // TRUE or 1
	False           string // FALSE or 0
	StringPrefix    string // N for SQL Server unicode strings
	BackslashEscape bool   // MySQL treats backslash as an escape character
	BytesPrefix     string // X' for MySQL/SQLite, '\x for Postgres, 0x for SQL Server
	BytesSuffix     string
}

// FeatureSet lists the DDL features a dialect can express.
type FeatureSet struct {
	ConcurrentIndex    bool // CREATE INDEX CONCURRENTLY
	Partitioning       bool // PARTITION BY on CREATE TABLE
	Inherits           bool // INHERITS (parent)
	Tablespace         bool // TABLESPACE name
	Unlogged           bool // CREATE UNLOGGED TABLE
	ExcludeConstraints bool // EXCLUDE USING ...
	Arrays             bool // type[] columns
	NullsOrdering      bool // NULLS FIRST / NULLS LAST in index columns
	IndexInclude       bool // INCLUDE (cols)
	PartialIndex       bool // CREATE INDEX ... WHERE
	IndexMethods       []string
	Deferrable         bool // DEFERRABLE INITIALLY DEFERRED foreign keys
	Cascade            bool // DROP ... CASCADE
	ExplicitNull       bool // render NULL on nullable column definitions
	AlterColumnType    bool
	AlterNullability   bool
	AlterDefault       bool
	AlterConstraints   bool // ADD/DROP CONSTRAINT on existing tables
	RenameConstraint   bool
	RenameIndex        bool
	Reindex            bool
	Comments           CommentStyle
}

// CommentStyle selects how a dialect stores table and column comments.
type CommentStyle int

const (
	// CommentNone means the dialect cannot store comments.
	CommentNone CommentStyle = iota
	// CommentOnStatement uses COMMENT ON TABLE/COLUMN statements (PostgreSQL).
	CommentOnStatement
	// CommentInline uses COMMENT clauses in the definition (MySQL).
	CommentInline
	// CommentExtendedProperty uses sp_addextendedproperty (SQL Server).
	CommentExtendedProperty
)
