package ddl

import (
	"fmt"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// AlterError attributes a compile failure to one operation of a batch.
type AlterError struct {
	Operation string
	Err       error
}

func (e *AlterError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e *AlterError) Unwrap() error {
	return e.Err
}

// AlterPlan is the compiled form of an AlterTableBatch.
type AlterPlan struct {
	Statements []Statement
	Errors     []error
}

// SQL returns the statements as plain strings.
func (p *AlterPlan) SQL() []string {
	out := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		out[i] = s.SQL
	}
	return out
}

// AlterTable compiles an alter batch into one statement per operation
// (comment statements may follow the operation that carries them).
// Order: column operations, constraint operations, index operations, then
// rename, set schema and comment. An operation the dialect cannot express is
// reported in Errors without stopping the others.
func AlterTable(batch *core.AlterTableBatch, d core.Dialect) *AlterPlan {
	c := newCompiler(d)
	a := &alterer{compiler: c, schema: batch.Schema, name: batch.Table, plan: &AlterPlan{}}

	for i, op := range batch.ColumnOperations {
		a.collect(fmt.Sprintf("column operation %d (%s)", i+1, op.Type), func() ([]Statement, error) {
			return a.columnOp(op)
		})
	}
	for i, op := range batch.ConstraintOperations {
		a.collect(fmt.Sprintf("constraint operation %d (%s)", i+1, op.Type), func() ([]Statement, error) {
			return a.constraintOp(op)
		})
	}
	for i, op := range batch.IndexOperations {
		a.collect(fmt.Sprintf("index operation %d (%s)", i+1, op.Type), func() ([]Statement, error) {
			return a.indexOp(op)
		})
	}
	if batch.RenameTable != "" {
		a.collect("rename table", func() ([]Statement, error) {
			s, err := a.renameTable(batch.RenameTable)
			if err == nil {
				a.name = batch.RenameTable
			}
			return s, err
		})
	}
	if batch.SetSchema != "" {
		a.collect("set schema", func() ([]Statement, error) {
			s, err := a.setSchema(batch.SetSchema)
			if err == nil {
				a.schema = batch.SetSchema
			}
			return s, err
		})
	}
	if batch.Comment != nil {
		a.collect("comment", func() ([]Statement, error) {
			return a.tableComment(*batch.Comment)
		})
	}
	return a.plan
}

type alterer struct {
	*compiler
	schema string
	name   string
	plan   *AlterPlan
}

func (a *alterer) collect(label string, fn func() ([]Statement, error)) {
	stmts, err := fn()
	if err != nil {
		a.plan.Errors = append(a.plan.Errors, &AlterError{Operation: label, Err: err})
		return
	}
	a.plan.Statements = append(a.plan.Statements, stmts...)
}

func (a *alterer) target() string {
	return a.table(a.schema, a.name)
}

func (a *alterer) prefix() string {
	return "ALTER TABLE " + a.target() + " "
}

func one(sql string) []Statement {
	return []Statement{{SQL: sql}}
}

// spRename renders EXEC sp_rename for SQL Server objects.
func (a *alterer) spRename(object, newName, kind string) string {
	sql := "EXEC sp_rename " + a.rules.QuoteString(object) + ", " + a.rules.QuoteString(newName)
	if kind != "" {
		sql += ", " + a.rules.QuoteString(kind)
	}
	return sql
}

func (a *alterer) columnOp(op core.AlterColumnOperation) ([]Statement, error) {
	switch op.Type {
	case core.AlterColumnAdd:
		return a.addColumn(op)
	case core.AlterColumnDrop:
		return one(a.prefix() + "DROP COLUMN " + a.q(op.ColumnName) + a.rules.CascadeClause(op.Cascade)), nil
	case core.AlterColumnRename:
		if a.d == core.MSSQL {
			obj := a.q(a.schemaOrDefault(a.schema)) + "." + a.q(a.name) + "." + a.q(op.ColumnName)
			return one(a.spRename(obj, op.NewName, "COLUMN")), nil
		}
		return one(a.prefix() + "RENAME COLUMN " + a.q(op.ColumnName) + " TO " + a.q(op.NewName)), nil
	case core.AlterColumnSetType:
		return a.setType(op)
	case core.AlterColumnSetNullable:
		return a.setNullable(op)
	case core.AlterColumnSetDefault:
		return a.setDefault(op)
	case core.AlterColumnSetComment:
		return a.setColumnComment(op)
	default:
		return nil, &core.ValidationError{Message: "unknown column operation " + string(op.Type)}
	}
}

func (a *alterer) addColumn(op core.AlterColumnOperation) ([]Statement, error) {
	if op.Column == nil {
		return nil, &core.ValidationError{Message: "column definition is required"}
	}
	col := *op.Column
	if a.d == core.SQLite && (col.IsPrimaryKey || col.IsUnique) {
		return nil, a.unsupported("adding PRIMARY KEY or UNIQUE columns")
	}
	def, err := a.renderColumn(a.name, col, col.IsPrimaryKey)
	if err != nil {
		return nil, err
	}

	keyword := "ADD COLUMN "
	if a.d == core.MSSQL {
		keyword = "ADD "
	}
	stmts := one(a.prefix() + keyword + def)

	if col.Comment != "" {
		switch a.f.Comments {
		case core.CommentOnStatement:
			stmts = append(stmts, Statement{SQL: "COMMENT ON COLUMN " + a.target() + "." + a.q(col.Name) + " IS " + a.rules.QuoteString(col.Comment)})
		case core.CommentExtendedProperty:
			stmts = append(stmts, Statement{SQL: a.extendedProperty(a.schemaOrDefault(a.schema), a.name, col.Name, col.Comment)})
		case core.CommentInline, core.CommentNone:
		}
	}
	return stmts, nil
}

// restate renders "<col> <type> [NOT] NULL" for dialects that modify a
// column by restating it. Both the type and the nullability must be given:
// an omitted nullability would otherwise reset the column to the dialect's
// default.
func (a *alterer) restate(op core.AlterColumnOperation) (string, error) {
	if op.DataType == "" {
		return "", &core.CompileError{Dialect: a.d, Message: "changing column " + op.ColumnName + " requires its data type"}
	}
	if op.IsNullable == nil {
		return "", &core.CompileError{Dialect: a.d, Message: "changing column " + op.ColumnName + " requires its nullability (isNullable)"}
	}
	typ, err := a.rules.FormatDataType(typeSpec(op.DataType))
	if err != nil {
		return "", err
	}
	null := " NOT NULL"
	if *op.IsNullable {
		null = " NULL"
	}
	return a.q(op.ColumnName) + " " + typ + null, nil
}

func typeSpec(dataType string) dialect.TypeSpec {
	return dialect.TypeSpec{DataType: dataType}
}

func (a *alterer) setType(op core.AlterColumnOperation) ([]Statement, error) {
	if !a.f.AlterColumnType {
		return nil, a.unsupported("changing column types")
	}
	switch a.d {
	case core.PostgreSQL:
		typ, err := a.rules.FormatDataType(typeSpec(op.DataType))
		if err != nil {
			return nil, err
		}
		sql := a.prefix() + "ALTER COLUMN " + a.q(op.ColumnName) + " TYPE " + typ
		if op.Using != "" {
			sql += " USING " + op.Using
		}
		return one(sql), nil
	case core.MySQL:
		col, err := a.restate(op)
		if err != nil {
			return nil, err
		}
		return one(a.prefix() + "MODIFY COLUMN " + col), nil
	case core.MSSQL:
		col, err := a.restate(op)
		if err != nil {
			return nil, err
		}
		return one(a.prefix() + "ALTER COLUMN " + col), nil
	default:
		return nil, a.unsupported("changing column types")
	}
}

func (a *alterer) setNullable(op core.AlterColumnOperation) ([]Statement, error) {
	if !a.f.AlterNullability {
		return nil, a.unsupported("changing column nullability")
	}
	if op.IsNullable == nil {
		return nil, &core.ValidationError{Subject: op.ColumnName, Message: "isNullable is required"}
	}
	switch a.d {
	case core.PostgreSQL:
		action := "SET NOT NULL"
		if *op.IsNullable {
			action = "DROP NOT NULL"
		}
		return one(a.prefix() + "ALTER COLUMN " + a.q(op.ColumnName) + " " + action), nil
	case core.MySQL:
		col, err := a.restate(op)
		if err != nil {
			return nil, err
		}
		return one(a.prefix() + "MODIFY COLUMN " + col), nil
	case core.MSSQL:
		col, err := a.restate(op)
		if err != nil {
			return nil, err
		}
		return one(a.prefix() + "ALTER COLUMN " + col), nil
	default:
		return nil, a.unsupported("changing column nullability")
	}
}

// dropDefaultConstraint renders a SQL Server batch that drops the default
// constraint of a column whatever its name, and does nothing when the column
// has none.
func (a *alterer) dropDefaultConstraint(column string) string {
	obj := a.rules.QuoteString(a.table(a.schemaOrDefault(a.schema), a.name))
	return "DECLARE @df sysname, @sql nvarchar(max); " +
		"SELECT @df = name FROM sys.default_constraints WHERE parent_object_id = OBJECT_ID(" + obj + ")" +
		" AND COL_NAME(parent_object_id, parent_column_id) = " + a.rules.QuoteString(column) + "; " +
		"IF @df IS NOT NULL BEGIN SET @sql = " + a.rules.QuoteString(a.prefix()+"DROP CONSTRAINT ") +
		" + QUOTENAME(@df); EXEC sp_executesql @sql; END"
}

func (a *alterer) setDefault(op core.AlterColumnOperation) ([]Statement, error) {
	if !a.f.AlterDefault {
		return nil, a.unsupported("changing column defaults")
	}
	col := a.q(op.ColumnName)

	if op.DefaultValue == nil && op.DefaultType != core.DefaultSequence {
		if a.d == core.MSSQL {
			return one(a.dropDefaultConstraint(op.ColumnName)), nil
		}
		return one(a.prefix() + "ALTER COLUMN " + col + " DROP DEFAULT"), nil
	}

	expr, err := a.renderDefault(core.ColumnDefinition{
		Name:         op.ColumnName,
		DefaultValue: op.DefaultValue,
		DefaultType:  op.DefaultType,
		SequenceName: op.SequenceName,
	})
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return nil, &core.CompileError{Dialect: a.d, Message: "identity cannot be added as a column default"}
	}
	if a.d == core.MSSQL {
		add := a.prefix() + "ADD CONSTRAINT " + a.q(a.defaultConstraintName(a.name, op.ColumnName)) + " DEFAULT " + expr + " FOR " + col
		return []Statement{{SQL: a.dropDefaultConstraint(op.ColumnName)}, {SQL: add}}, nil
	}
	return one(a.prefix() + "ALTER COLUMN " + col + " SET DEFAULT " + expr), nil
}

func (a *alterer) setColumnComment(op core.AlterColumnOperation) ([]Statement, error) {
	switch a.f.Comments {
	case core.CommentOnStatement:
		return one("COMMENT ON COLUMN " + a.target() + "." + a.q(op.ColumnName) + " IS " + a.commentValue(op.Comment)), nil
	case core.CommentInline:
		col, err := a.restate(op)
		if err != nil {
			return nil, err
		}
		return one(a.prefix() + "MODIFY COLUMN " + col + " COMMENT " + a.rules.QuoteString(op.Comment)), nil
	case core.CommentExtendedProperty:
		return one(a.replaceExtendedProperty(a.schemaOrDefault(a.schema), a.name, op.ColumnName, op.Comment)), nil
	default:
		return nil, a.unsupported("column comments")
	}
}

func (a *alterer) constraintOp(op core.AlterConstraintOperation) ([]Statement, error) {
	if !a.f.AlterConstraints {
		return nil, a.unsupported("altering constraints of an existing table")
	}
	switch op.Type {
	case core.AlterConstraintAdd:
		if op.Constraint == nil {
			return nil, &core.ValidationError{Message: "constraint definition is required"}
		}
		con, err := a.renderConstraint(a.schema, *op.Constraint)
		if err != nil {
			return nil, err
		}
		return one(a.prefix() + "ADD " + con), nil
	case core.AlterConstraintDrop:
		return one(a.prefix() + "DROP CONSTRAINT " + a.q(op.Name) + a.rules.CascadeClause(op.Cascade)), nil
	case core.AlterConstraintRename:
		if !a.f.RenameConstraint {
			return nil, a.unsupported("renaming constraints")
		}
		if a.d == core.MSSQL {
			return one(a.spRename(a.q(a.schemaOrDefault(a.schema))+"."+a.q(op.Name), op.NewName, "OBJECT")), nil
		}
		return one(a.prefix() + "RENAME CONSTRAINT " + a.q(op.Name) + " TO " + a.q(op.NewName)), nil
	default:
		return nil, &core.ValidationError{Message: "unknown constraint operation " + string(op.Type)}
	}
}

func (a *alterer) indexOp(op core.AlterIndexOperation) ([]Statement, error) {
	switch op.Type {
	case core.AlterIndexCreate:
		if op.Index == nil {
			return nil, &core.ValidationError{Message: "index definition is required"}
		}
		s, err := a.renderCreateIndex(a.schema, a.name, *op.Index)
		if err != nil {
			return nil, err
		}
		return []Statement{s}, nil
	case core.AlterIndexDrop:
		return a.dropIndex(op)
	case core.AlterIndexRename:
		if !a.f.RenameIndex {
			return nil, a.unsupported("renaming indexes")
		}
		switch a.d {
		case core.PostgreSQL:
			return one("ALTER INDEX " + a.table(a.schema, op.Name) + " RENAME TO " + a.q(op.NewName)), nil
		case core.MySQL:
			return one(a.prefix() + "RENAME INDEX " + a.q(op.Name) + " TO " + a.q(op.NewName)), nil
		case core.MSSQL:
			obj := a.q(a.schemaOrDefault(a.schema)) + "." + a.q(a.name) + "." + a.q(op.Name)
			return one(a.spRename(obj, op.NewName, "INDEX")), nil
		default:
			return nil, a.unsupported("renaming indexes")
		}
	case core.AlterIndexReindex:
		if !a.f.Reindex {
			return nil, a.unsupported("rebuilding indexes")
		}
		switch a.d {
		case core.PostgreSQL:
			conc := ""
			if op.Concurrent {
				conc = "CONCURRENTLY "
			}
			return []Statement{{SQL: "REINDEX INDEX " + conc + a.table(a.schema, op.Name), Concurrent: op.Concurrent}}, nil
		case core.SQLite:
			return one("REINDEX " + a.table(a.schema, op.Name)), nil
		case core.MSSQL:
			return one("ALTER INDEX " + a.q(op.Name) + " ON " + a.target() + " REBUILD"), nil
		default:
			return nil, a.unsupported("rebuilding indexes")
		}
	default:
		return nil, &core.ValidationError{Message: "unknown index operation " + string(op.Type)}
	}
}

func (a *alterer) dropIndex(op core.AlterIndexOperation) ([]Statement, error) {
	switch a.d {
	case core.PostgreSQL:
		conc := op.Concurrent && a.f.ConcurrentIndex
		sql := "DROP INDEX "
		if conc {
			sql += "CONCURRENTLY "
		}
		sql += a.table(a.schema, op.Name) + a.rules.CascadeClause(op.Cascade)
		return []Statement{{SQL: sql, Concurrent: conc}}, nil
	case core.SQLite:
		return one("DROP INDEX " + a.table(a.schema, op.Name)), nil
	case core.MySQL, core.MSSQL:
		return one("DROP INDEX " + a.q(op.Name) + " ON " + a.target()), nil
	default:
		core.UnreachableDialect(a.d)
		return nil, nil
	}
}

func (a *alterer) renameTable(newName string) ([]Statement, error) {
	switch a.d {
	case core.PostgreSQL, core.SQLite:
		return one(a.prefix() + "RENAME TO " + a.q(newName)), nil
	case core.MySQL:
		return one("RENAME TABLE " + a.target() + " TO " + a.table(a.schema, newName)), nil
	case core.MSSQL:
		return one(a.spRename(a.q(a.schemaOrDefault(a.schema))+"."+a.q(a.name), newName, "")), nil
	default:
		core.UnreachableDialect(a.d)
		return nil, nil
	}
}

func (a *alterer) setSchema(schema string) ([]Statement, error) {
	switch a.d {
	case core.PostgreSQL:
		return one(a.prefix() + "SET SCHEMA " + a.q(schema)), nil
	case core.MySQL:
		return one("RENAME TABLE " + a.target() + " TO " + a.table(schema, a.name)), nil
	case core.MSSQL:
		return one("ALTER SCHEMA " + a.q(schema) + " TRANSFER " + a.target()), nil
	case core.SQLite:
		return nil, a.unsupported("moving tables between schemas")
	default:
		core.UnreachableDialect(a.d)
		return nil, nil
	}
}

func (a *alterer) tableComment(comment string) ([]Statement, error) {
	switch a.f.Comments {
	case core.CommentOnStatement:
		return one("COMMENT ON TABLE " + a.target() + " IS " + a.commentValue(comment)), nil
	case core.CommentInline:
		return one(a.prefix() + "COMMENT = " + a.rules.QuoteString(comment)), nil
	case core.CommentExtendedProperty:
		return one(a.replaceExtendedProperty(a.schemaOrDefault(a.schema), a.name, "", comment)), nil
	default:
		return nil, a.unsupported("table comments")
	}
}
