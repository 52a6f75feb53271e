package ddl

import "github.com/leapstack-labs/dbdesk/pkg/core"

// DropTable compiles DROP TABLE. Cascade is ignored where the dialect has no
// cascade syntax.
func DropTable(schema, table string, opts core.DropOptions, d core.Dialect) (Statement, error) {
	if table == "" {
		return Statement{}, &core.ValidationError{Message: "table name is required"}
	}
	c := newCompiler(d)
	sql := "DROP TABLE "
	if opts.IfExists {
		sql += "IF EXISTS "
	}
	sql += c.table(schema, table) + c.rules.CascadeClause(opts.Cascade)
	return Statement{SQL: sql}, nil
}
