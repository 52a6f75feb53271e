package ddl

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// Statement is one compiled DDL statement.
// Concurrent statements (CREATE INDEX CONCURRENTLY) cannot run inside a
// transaction block and are executed after the transactional ones.
type Statement struct {
	SQL        string `json:"sql"`
	Concurrent bool   `json:"concurrent,omitempty"`
}

var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

type compiler struct {
	rules *dialect.Rules
	d     core.Dialect
	f     core.FeatureSet
}

func newCompiler(d core.Dialect) *compiler {
	r := dialect.For(d)
	return &compiler{rules: r, d: d, f: r.Features()}
}

func (c *compiler) unsupported(feature string) error {
	return core.Unsupported(c.d, feature)
}

func (c *compiler) q(name string) string {
	return c.rules.QuoteIdentifier(name)
}

func (c *compiler) table(schema, name string) string {
	return c.rules.QualifiedName(schema, name)
}

// isIdentity reports whether the column should be auto-generated.
func (c *compiler) isIdentity(col core.ColumnDefinition) bool {
	if col.DefaultType == core.DefaultIdentity {
		return true
	}
	return c.d != core.PostgreSQL && dialect.IsSerial(col.DataType)
}

// renderColumn renders one column definition of table. inlinePK adds PRIMARY KEY.
func (c *compiler) renderColumn(table string, col core.ColumnDefinition, inlinePK bool) (string, error) {
	typ, err := c.rules.FormatDataType(dialect.TypeSpec{
		DataType:  col.DataType,
		Length:    col.Length,
		Precision: col.Precision,
		Scale:     col.Scale,
		IsArray:   col.IsArray,
	})
	if err != nil {
		return "", err
	}

	parts := []string{c.q(col.Name), typ}
	if col.Collation != "" {
		if c.d == core.PostgreSQL {
			parts = append(parts, "COLLATE "+c.q(col.Collation))
		} else {
			parts = append(parts, "COLLATE "+col.Collation)
		}
	}

	identity := c.isIdentity(col)
	if identity && (c.d == core.PostgreSQL || c.d == core.MSSQL) {
		parts = append(parts, c.rules.IdentityClause())
	}

	switch {
	case !col.IsNullable || col.IsPrimaryKey:
		parts = append(parts, "NOT NULL")
	case c.f.ExplicitNull:
		parts = append(parts, "NULL")
	}

	if def, err := c.renderDefault(col); err != nil {
		return "", err
	} else if def != "" {
		if c.d == core.MSSQL {
			parts = append(parts, "CONSTRAINT "+c.q(c.defaultConstraintName(table, col.Name)))
		}
		parts = append(parts, "DEFAULT "+def)
	}

	if identity && c.d == core.MySQL {
		parts = append(parts, c.rules.IdentityClause())
	}

	if inlinePK {
		parts = append(parts, "PRIMARY KEY")
		if identity && c.d == core.SQLite {
			parts = append(parts, c.rules.IdentityClause())
		}
	} else if identity && c.d == core.SQLite {
		return "", &core.CompileError{Dialect: c.d, Message: "AUTOINCREMENT requires a single-column INTEGER PRIMARY KEY on " + col.Name}
	}

	if col.IsUnique && !col.IsPrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if col.CheckConstraint != "" {
		parts = append(parts, "CHECK ("+col.CheckConstraint+")")
	}
	if col.Comment != "" && c.f.Comments == core.CommentInline {
		parts = append(parts, "COMMENT "+c.rules.QuoteString(col.Comment))
	}
	return strings.Join(parts, " "), nil
}

func (c *compiler) renderDefault(col core.ColumnDefinition) (string, error) {
	switch col.DefaultType {
	case core.DefaultNone:
		if col.DefaultValue == nil {
			return "", nil
		}
		return c.defaultLiteral(*col.DefaultValue), nil
	case core.DefaultValue, core.DefaultExpression:
		if col.DefaultValue == nil {
			return "", &core.ValidationError{Subject: col.Name, Message: "default of type " + string(col.DefaultType) + " requires a value"}
		}
		if col.DefaultType == core.DefaultValue {
			return c.defaultLiteral(*col.DefaultValue), nil
		}
		expr := *col.DefaultValue
		if c.d == core.MySQL || c.d == core.SQLite {
			expr = "(" + expr + ")"
		}
		return expr, nil
	case core.DefaultSequence:
		switch c.d {
		case core.PostgreSQL:
			return "nextval(" + c.rules.QuoteString(col.SequenceName) + "::regclass)", nil
		case core.MSSQL:
			return "NEXT VALUE FOR " + c.q(col.SequenceName), nil
		default:
			return "", c.unsupported("sequence defaults")
		}
	case core.DefaultIdentity:
		return "", nil
	default:
		return "", &core.ValidationError{Subject: col.Name, Message: "unknown default type " + string(col.DefaultType)}
	}
}

// defaultLiteral keeps numbers and the NULL/boolean keywords bare and quotes
// everything else.
func (c *compiler) defaultLiteral(v string) string {
	switch strings.ToUpper(v) {
	case "NULL":
		return "NULL"
	case "TRUE":
		return c.rules.FormatLiteral(true, "")
	case "FALSE":
		return c.rules.FormatLiteral(false, "")
	}
	if numericLiteral.MatchString(v) {
		return v
	}
	return c.rules.QuoteString(v)
}

// renderConstraint renders a table-level constraint. schema is the schema of
// the owning table, used for unqualified foreign key references.
func (c *compiler) renderConstraint(schema string, con core.ConstraintDefinition) (string, error) {
	var b strings.Builder
	if con.Name != "" {
		b.WriteString("CONSTRAINT " + c.q(con.Name) + " ")
	}

	switch con.Type {
	case core.ConstraintPrimaryKey:
		b.WriteString("PRIMARY KEY (" + c.rules.QuoteIdentifiers(con.Columns) + ")")
	case core.ConstraintUnique:
		b.WriteString("UNIQUE (" + c.rules.QuoteIdentifiers(con.Columns) + ")")
	case core.ConstraintCheck:
		b.WriteString("CHECK (" + con.Expression + ")")
	case core.ConstraintForeignKey:
		ref, err := c.foreignKeyTarget(schema, con)
		if err != nil {
			return "", err
		}
		b.WriteString("FOREIGN KEY (" + c.rules.QuoteIdentifiers(con.Columns) + ") REFERENCES " + ref +
			" (" + c.rules.QuoteIdentifiers(con.ReferencedColumns) + ")")
		for _, a := range []struct {
			clause string
			action core.ReferentialAction
		}{{"ON DELETE", con.OnDelete}, {"ON UPDATE", con.OnUpdate}} {
			if a.action == "" {
				continue
			}
			action, err := c.referentialAction(a.action)
			if err != nil {
				return "", err
			}
			b.WriteString(" " + a.clause + " " + action)
		}
		if con.Deferrable {
			if !c.f.Deferrable {
				return "", c.unsupported("deferrable constraints")
			}
			b.WriteString(" DEFERRABLE INITIALLY DEFERRED")
		}
	case core.ConstraintExclude:
		if !c.f.ExcludeConstraints {
			return "", c.unsupported("exclusion constraints")
		}
		method := con.Method
		if method == "" {
			method = "gist"
		}
		elems := make([]string, len(con.Elements))
		for i, e := range con.Elements {
			elems[i] = e.Element + " WITH " + e.Operator
		}
		b.WriteString("EXCLUDE USING " + method + " (" + strings.Join(elems, ", ") + ")")
		if con.Where != "" {
			b.WriteString(" WHERE (" + con.Where + ")")
		}
	default:
		return "", &core.ValidationError{Message: "unknown constraint type " + string(con.Type)}
	}
	return b.String(), nil
}

func (c *compiler) foreignKeyTarget(schema string, con core.ConstraintDefinition) (string, error) {
	if c.d == core.SQLite {
		// SQLite resolves REFERENCES within the schema of the child table.
		return c.q(con.ReferencedTable), nil
	}
	refSchema := con.ReferencedSchema
	if refSchema == "" {
		refSchema = schema
	}
	return c.table(refSchema, con.ReferencedTable), nil
}

func (c *compiler) referentialAction(a core.ReferentialAction) (string, error) {
	switch core.ReferentialAction(strings.ToUpper(string(a))) {
	case core.ActionNoAction:
		return string(core.ActionNoAction), nil
	case core.ActionRestrict:
		if c.d == core.MSSQL {
			return string(core.ActionNoAction), nil
		}
		return string(core.ActionRestrict), nil
	case core.ActionCascade:
		return string(core.ActionCascade), nil
	case core.ActionSetNull:
		return string(core.ActionSetNull), nil
	case core.ActionSetDefault:
		return string(core.ActionSetDefault), nil
	default:
		return "", &core.ValidationError{Message: "unknown referential action " + string(a)}
	}
}

// indexName returns the index name, generating <table>_<cols>_idx when absent.
func indexName(table string, idx core.IndexDefinition) string {
	if idx.Name != "" {
		return idx.Name
	}
	parts := []string{table}
	for _, c := range idx.Columns {
		parts = append(parts, c.Name)
	}
	suffix := "idx"
	if idx.IsUnique {
		suffix = "key"
	}
	return strings.Join(append(parts, suffix), "_")
}

// renderCreateIndex renders CREATE INDEX for a table.
func (c *compiler) renderCreateIndex(schema, table string, idx core.IndexDefinition) (Statement, error) {
	cols := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		s := c.q(col.Name)
		if col.Order != "" {
			s += " " + string(col.Order)
		}
		if col.NullsPosition != "" {
			if !c.f.NullsOrdering {
				return Statement{}, c.unsupported("NULLS FIRST/LAST in indexes")
			}
			s += " NULLS " + string(col.NullsPosition)
		}
		cols[i] = s
	}
	if idx.Method != "" && !c.rules.SupportsIndexMethod(idx.Method) {
		return Statement{}, c.unsupported("index method " + idx.Method)
	}
	if len(idx.Include) > 0 && !c.f.IndexInclude {
		return Statement{}, c.unsupported("INCLUDE columns")
	}
	if idx.Where != "" && !c.f.PartialIndex {
		return Statement{}, c.unsupported("partial indexes")
	}

	name := indexName(table, idx)
	concurrent := idx.Concurrent && c.f.ConcurrentIndex

	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.IsUnique {
		b.WriteString("UNIQUE ")
	}
	if c.d == core.MSSQL && idx.Method != "" {
		b.WriteString(strings.ToUpper(idx.Method) + " ")
	}
	b.WriteString("INDEX ")
	if concurrent {
		b.WriteString("CONCURRENTLY ")
	}

	switch c.d {
	case core.SQLite:
		b.WriteString(c.table(schema, name) + " ON " + c.q(table))
	case core.PostgreSQL, core.MySQL, core.MSSQL:
		b.WriteString(c.q(name) + " ON " + c.table(schema, table))
	default:
		core.UnreachableDialect(c.d)
	}

	if c.d == core.PostgreSQL && idx.Method != "" {
		b.WriteString(" USING " + strings.ToLower(idx.Method))
	}
	b.WriteString(" (" + strings.Join(cols, ", ") + ")")
	if c.d == core.MySQL && idx.Method != "" {
		b.WriteString(" USING " + strings.ToUpper(idx.Method))
	}
	if len(idx.Include) > 0 {
		b.WriteString(" INCLUDE (" + c.rules.QuoteIdentifiers(idx.Include) + ")")
	}
	if idx.Where != "" {
		b.WriteString(" WHERE " + idx.Where)
	}
	return Statement{SQL: b.String(), Concurrent: concurrent}, nil
}

// defaultConstraintName names the SQL Server default constraint of a column.
func (c *compiler) defaultConstraintName(table, column string) string {
	return "DF_" + table + "_" + column
}

// extendedProperty renders sp_addextendedproperty for a table or column comment.
func (c *compiler) extendedProperty(schema, table, column, comment string) string {
	return c.extendedPropertyCall("sp_addextendedproperty", schema, table, column, &comment)
}

// extendedPropertyCall renders an EXEC of one of the MS_Description
// procedures. A nil value omits @value, as sp_dropextendedproperty requires.
func (c *compiler) extendedPropertyCall(proc, schema, table, column string, value *string) string {
	var b strings.Builder
	b.WriteString("EXEC " + proc + " @name = N'MS_Description'")
	if value != nil {
		b.WriteString(", @value = " + c.rules.QuoteString(*value))
	}
	b.WriteString(", @level0type = N'SCHEMA', @level0name = " + c.rules.QuoteString(schema))
	b.WriteString(", @level1type = N'TABLE', @level1name = " + c.rules.QuoteString(table))
	if column != "" {
		b.WriteString(", @level2type = N'COLUMN', @level2name = " + c.rules.QuoteString(column))
	}
	return b.String()
}

// replaceExtendedProperty renders a comment change on an existing object:
// update when MS_Description exists, add otherwise, and drop it for an
// empty comment.
func (c *compiler) replaceExtendedProperty(schema, table, column, comment string) string {
	obj := c.rules.QuoteString(c.table(schema, table))
	minor := "0"
	if column != "" {
		minor = "COLUMNPROPERTY(OBJECT_ID(" + obj + "), " + c.rules.QuoteString(column) + ", 'ColumnId')"
	}
	exists := "IF EXISTS (SELECT 1 FROM sys.extended_properties WHERE class = 1 AND name = N'MS_Description'" +
		" AND major_id = OBJECT_ID(" + obj + ") AND minor_id = " + minor + ") "

	if comment == "" {
		return exists + c.extendedPropertyCall("sp_dropextendedproperty", schema, table, column, nil)
	}
	return exists + c.extendedPropertyCall("sp_updateextendedproperty", schema, table, column, &comment) +
		" ELSE " + c.extendedPropertyCall("sp_addextendedproperty", schema, table, column, &comment)
}

// commentValue renders a comment literal, NULL for an empty comment.
func (c *compiler) commentValue(comment string) string {
	if comment == "" {
		return "NULL"
	}
	return c.rules.QuoteString(comment)
}
