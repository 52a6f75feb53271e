package ddl

import (
	"errors"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// statementSeparator joins the statements of compiled CREATE output.
// SplitStatements relies on this exact layout.
const statementSeparator = ";\n\n"

// CreateResult is the compiled form of a TableDefinition.
type CreateResult struct {
	// SQL is every statement joined by a blank line, each terminated by ';'.
	SQL string `json:"sql"`
	// Statements in execution order: CREATE TABLE, comments, indexes.
	Statements []Statement `json:"statements"`
}

func joinStatements(stmts []Statement) string {
	if len(stmts) == 0 {
		return ""
	}
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.SQL
	}
	return strings.Join(parts, statementSeparator) + ";"
}

// CreateTable compiles a table definition. The definition should have
// passed ValidateTableDefinition; CreateTable re-checks it and fails with a
// ValidationError otherwise.
func CreateTable(def *core.TableDefinition, d core.Dialect) (*CreateResult, error) {
	if res := ValidateTableDefinition(def); !res.Valid {
		subject := ""
		if def != nil {
			subject = def.Name
		}
		return nil, &core.ValidationError{Subject: subject, Message: strings.Join(res.Errors, "; ")}
	}
	c := newCompiler(d)

	create, err := c.createStatement(def)
	if err != nil {
		return nil, err
	}
	stmts := []Statement{{SQL: create}}

	comments, err := c.commentStatements(def)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, comments...)

	for _, idx := range def.Indexes {
		s, err := c.renderCreateIndex(def.Schema, def.Name, idx)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &CreateResult{SQL: joinStatements(stmts), Statements: stmts}, nil
}

// PreviewDDL returns the CREATE script a definition compiles to, without executing it.
func PreviewDDL(def *core.TableDefinition, d core.Dialect) (string, error) {
	res, err := CreateTable(def, d)
	if err != nil {
		return "", err
	}
	return res.SQL, nil
}

func (c *compiler) createStatement(def *core.TableDefinition) (string, error) {
	if def.Unlogged && !c.f.Unlogged {
		return "", c.unsupported("unlogged tables")
	}
	if def.Inherits != "" && !c.f.Inherits {
		return "", c.unsupported("table inheritance")
	}
	if def.Partition != nil && !c.f.Partitioning {
		return "", c.unsupported("declarative partitioning")
	}
	if def.Tablespace != "" && !c.f.Tablespace {
		return "", c.unsupported("tablespaces")
	}

	var pkConstraint *core.ConstraintDefinition
	for i := range def.Constraints {
		if def.Constraints[i].Type == core.ConstraintPrimaryKey {
			pkConstraint = &def.Constraints[i]
			break
		}
	}
	var pkCols []string
	for _, col := range def.Columns {
		if col.IsPrimaryKey {
			pkCols = append(pkCols, col.Name)
		}
	}
	inlinePK := pkConstraint == nil && len(pkCols) == 1

	lines := make([]string, 0, len(def.Columns)+len(def.Constraints)+1)
	for _, col := range def.Columns {
		line, err := c.renderColumn(def.Name, col, inlinePK && col.IsPrimaryKey)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	if pkConstraint == nil && len(pkCols) > 1 {
		lines = append(lines, "PRIMARY KEY ("+c.rules.QuoteIdentifiers(pkCols)+")")
	}
	for _, con := range def.Constraints {
		line, err := c.renderConstraint(def.Schema, con)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if def.Unlogged {
		b.WriteString("UNLOGGED ")
	}
	b.WriteString("TABLE " + c.table(def.Schema, def.Name) + " (\n  ")
	b.WriteString(strings.Join(lines, ",\n  "))
	b.WriteString("\n)")

	if def.Inherits != "" {
		b.WriteString(" INHERITS (" + c.inheritsTarget(def) + ")")
	}
	if p := def.Partition; p != nil {
		b.WriteString(" PARTITION BY " + strings.ToUpper(string(p.Strategy)) + " (" + c.rules.QuoteIdentifiers(p.Columns) + ")")
	}
	if def.Tablespace != "" {
		b.WriteString(" TABLESPACE " + c.q(def.Tablespace))
	}
	if def.Comment != "" && c.f.Comments == core.CommentInline {
		b.WriteString(" COMMENT=" + c.rules.QuoteString(def.Comment))
	}
	return b.String(), nil
}

func (c *compiler) inheritsTarget(def *core.TableDefinition) string {
	if schema, name, ok := strings.Cut(def.Inherits, "."); ok {
		return c.table(schema, name)
	}
	return c.table(def.Schema, def.Inherits)
}

// commentStatements renders table and column comments for dialects that
// store them outside the CREATE statement.
func (c *compiler) commentStatements(def *core.TableDefinition) ([]Statement, error) {
	var stmts []Statement
	table := c.table(def.Schema, def.Name)
	switch c.f.Comments {
	case core.CommentOnStatement:
		if def.Comment != "" {
			stmts = append(stmts, Statement{SQL: "COMMENT ON TABLE " + table + " IS " + c.rules.QuoteString(def.Comment)})
		}
		for _, col := range def.Columns {
			if col.Comment != "" {
				stmts = append(stmts, Statement{SQL: "COMMENT ON COLUMN " + table + "." + c.q(col.Name) + " IS " + c.rules.QuoteString(col.Comment)})
			}
		}
	case core.CommentExtendedProperty:
		schema := c.schemaOrDefault(def.Schema)
		if def.Comment != "" {
			stmts = append(stmts, Statement{SQL: c.extendedProperty(schema, def.Name, "", def.Comment)})
		}
		for _, col := range def.Columns {
			if col.Comment != "" {
				stmts = append(stmts, Statement{SQL: c.extendedProperty(schema, def.Name, col.Name, col.Comment)})
			}
		}
	case core.CommentInline, core.CommentNone:
		// rendered inline, or not stored at all
	default:
		return nil, errors.New("unknown comment style")
	}
	return stmts, nil
}

func (c *compiler) schemaOrDefault(schema string) string {
	if schema == "" {
		return c.rules.DefaultSchema()
	}
	return schema
}
