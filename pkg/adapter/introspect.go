package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// BuildEditContext assembles an EditContext from introspected columns.
// Primary key columns are taken from the IsPrimaryKey flags unless pk is given.
func BuildEditContext(schema, table string, columns []core.ColumnInfo, pk []string) (*core.EditContext, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", qualified(schema, table))
	}
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].OrdinalPosition < columns[j].OrdinalPosition
	})

	if len(pk) > 0 {
		isPK := make(map[string]bool, len(pk))
		for _, name := range pk {
			isPK[name] = true
		}
		for i := range columns {
			columns[i].IsPrimaryKey = isPK[columns[i].Name]
		}
	} else {
		for _, c := range columns {
			if c.IsPrimaryKey {
				pk = append(pk, c.Name)
			}
		}
	}
	if pk == nil {
		pk = []string{}
	}

	return &core.EditContext{
		Schema:            schema,
		Table:             table,
		PrimaryKeyColumns: pk,
		Columns:           columns,
	}, nil
}

func qualified(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

// GetEditContextCommon introspects a table through information_schema.
// It serves every backend that exposes the standard views.
func (b *BaseSQLAdapter) GetEditContextCommon(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	return b.GetEditContextWithForeignKeys(ctx, cfg, schema, table, "", nil)
}

// SchemaTableArgs binds the resolved schema and table as the two
// arguments of an introspection query.
func SchemaTableArgs(schema, table string) []any {
	return []any{schema, table}
}

// GetEditContextWithForeignKeys is GetEditContextCommon plus foreign key
// references, all read on one connection. fkQuery selects one row per
// referencing column (column, referenced schema, referenced table,
// referenced column) with the arguments fkArgs builds from the resolved
// schema and table. An empty fkQuery skips foreign keys.
func (b *BaseSQLAdapter) GetEditContextWithForeignKeys(ctx context.Context, cfg core.ConnectionConfig, schema, table, fkQuery string, fkArgs func(schema, table string) []any) (*core.EditContext, error) {
	rules := dialect.For(b.Dialect())
	schema = SchemaOrDefault(schema, cfg, rules)

	//nolint:gosec // placeholders come from dialect.FormatPlaceholder
	columnsQuery := fmt.Sprintf(`
		SELECT column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position`, rules.FormatPlaceholder(1), rules.FormatPlaceholder(2))

	//nolint:gosec // placeholders come from dialect.FormatPlaceholder
	pkQuery := fmt.Sprintf(`
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		 AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = %s AND tc.table_name = %s
		ORDER BY kcu.ordinal_position`, rules.FormatPlaceholder(1), rules.FormatPlaceholder(2))

	var (
		columns []core.ColumnInfo
		pk      []string
		refs    = map[string]*core.ForeignKeyRef{}
	)
	err := b.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		err := QueryConn(ctx, conn, columnsQuery, []any{schema, table}, func(rows *sql.Rows) error {
			var (
				col      core.ColumnInfo
				nullable string
			)
			if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.OrdinalPosition); err != nil {
				return err
			}
			col.IsNullable = nullable == "YES"
			columns = append(columns, col)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to query column metadata: %w", err)
		}
		err = QueryConn(ctx, conn, pkQuery, []any{schema, table}, func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			pk = append(pk, name)
			return nil
		})
		if err != nil || fkQuery == "" {
			return err
		}
		err = QueryConn(ctx, conn, fkQuery, fkArgs(schema, table), func(rows *sql.Rows) error {
			var col string
			var ref core.ForeignKeyRef
			if err := rows.Scan(&col, &ref.Schema, &ref.Table, &ref.Column); err != nil {
				return err
			}
			refs[col] = &ref
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to query foreign keys: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ec, err := BuildEditContext(schema, table, columns, pk)
	if err != nil {
		return nil, err
	}
	for i := range ec.Columns {
		ec.Columns[i].ForeignKey = refs[ec.Columns[i].Name]
	}
	return ec, nil
}

// SchemaOrDefault resolves an empty schema to the configured schema, then
// the dialect default, then the database name (MySQL has no schemas).
func SchemaOrDefault(schema string, cfg core.ConnectionConfig, rules *dialect.Rules) string {
	switch {
	case schema != "":
		return schema
	case cfg.Schema != "":
		return cfg.Schema
	case rules.DefaultSchema() != "":
		return rules.DefaultSchema()
	default:
		return cfg.Database
	}
}
