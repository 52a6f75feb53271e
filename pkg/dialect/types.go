package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// simpleTypeName matches type names safe to upper-case (no quoting, no schema).
var simpleTypeName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*$`)

var serialTypes = map[string]string{
	"smallserial": "SMALLINT",
	"serial2":     "SMALLINT",
	"serial":      "INT",
	"serial4":     "INT",
	"bigserial":   "BIGINT",
	"serial8":     "BIGINT",
}

// IsSerial reports whether dataType is a Postgres serial pseudo-type.
func IsSerial(dataType string) bool {
	_, ok := serialTypes[strings.ToLower(strings.TrimSpace(dataType))]
	return ok
}

// TypeSpec is the type-related part of a column definition.
type TypeSpec struct {
	DataType  string
	Length    *int
	Precision *int
	Scale     *int
	IsArray   bool
}

// FormatDataType renders a column type for the dialect.
// Serial pseudo-types are rewritten to the dialect's integer type outside
// Postgres; the caller adds the identity clause.
func (r *Rules) FormatDataType(spec TypeSpec) (string, error) {
	name := strings.TrimSpace(spec.DataType)
	if name == "" {
		return "", &core.ValidationError{Message: "data type is required"}
	}
	if mapped, ok := serialTypes[strings.ToLower(name)]; ok && r.Dialect() != core.PostgreSQL {
		name = mapped
		if r.Dialect() == core.SQLite {
			name = "INTEGER"
		}
	}
	if simpleTypeName.MatchString(name) {
		name = strings.ToUpper(name)
	}

	switch {
	case spec.Length != nil:
		name += "(" + strconv.Itoa(*spec.Length) + ")"
	case spec.Precision != nil && spec.Scale != nil:
		name += fmt.Sprintf("(%d,%d)", *spec.Precision, *spec.Scale)
	case spec.Precision != nil:
		name += "(" + strconv.Itoa(*spec.Precision) + ")"
	}

	if spec.IsArray {
		if !r.cfg.Features.Arrays {
			return "", core.Unsupported(r.Dialect(), "array columns")
		}
		name += "[]"
	}
	return name, nil
}

// IdentityClause returns the clause that makes a column auto-generated.
func (r *Rules) IdentityClause() string {
	switch r.Dialect() {
	case core.PostgreSQL:
		return "GENERATED BY DEFAULT AS IDENTITY"
	case core.MySQL:
		return "AUTO_INCREMENT"
	case core.SQLite:
		return "AUTOINCREMENT"
	case core.MSSQL:
		return "IDENTITY(1,1)"
	default:
		core.UnreachableDialect(r.Dialect())
		return ""
	}
}

// CascadeClause returns " CASCADE" when requested and supported.
func (r *Rules) CascadeClause(cascade bool) string {
	if cascade && r.cfg.Features.Cascade {
		return " CASCADE"
	}
	return ""
}
