package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
func New(deps adapter.Deps) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(driver{}, deps)}
}

var rules = dialect.For(core.SQLite)

// GetSchemas lists attached databases with their tables and views.
func (a *Adapter) GetSchemas(ctx context.Context, cfg core.ConnectionConfig) ([]core.SchemaInfo, error) {
	set := adapter.NewSchemaSet()
	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		var names []string
		err := adapter.QueryConn(ctx, conn, "SELECT name FROM pragma_database_list ORDER BY seq", nil, func(rows *sql.Rows) error {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			names = append(names, name)
			return nil
		})
		if err != nil {
			return err
		}

		for _, schema := range names {
			set.AddSchema(schema)
			//nolint:gosec // schema name is quoted
			query := fmt.Sprintf(`SELECT name, type FROM %s.sqlite_master
				WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
				ORDER BY name`, rules.QuoteIdentifier(schema))
			err := adapter.QueryConn(ctx, conn, query, nil, func(rows *sql.Rows) error {
				var name, kind string
				if err := rows.Scan(&name, &kind); err != nil {
					return err
				}
				set.Add(schema, name, kind == "view")
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return set.List(), nil
}

// storageClasses are SQLite's type affinities.
var storageClasses = []string{"INTEGER", "REAL", "TEXT", "BLOB", "NUMERIC"}

// GetTypes reports the storage classes; SQLite has no user-defined types.
func (a *Adapter) GetTypes(context.Context, core.ConnectionConfig) ([]core.TypeInfo, error) {
	types := make([]core.TypeInfo, len(storageClasses))
	for i, name := range storageClasses {
		types[i] = core.TypeInfo{Name: name, Kind: "base"}
	}
	return types, nil
}

// GetSequences returns no sequences.
func (a *Adapter) GetSequences(context.Context, core.ConnectionConfig) ([]core.SequenceInfo, error) {
	return []core.SequenceInfo{}, nil
}

// GetTableDDL returns the stored CREATE TABLE statement followed by the
// table's explicit index and trigger definitions.
func (a *Adapter) GetTableDDL(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (string, error) {
	if schema == "" {
		schema = rules.DefaultSchema()
	}
	//nolint:gosec // schema name is quoted
	query := fmt.Sprintf(`SELECT sql FROM %s.sqlite_master
		WHERE tbl_name = ? AND sql IS NOT NULL AND type IN ('table', 'index', 'trigger')
		ORDER BY CASE type WHEN 'table' THEN 0 WHEN 'index' THEN 1 ELSE 2 END, name`, rules.QuoteIdentifier(schema))

	var stmts []string
	err := a.Query(ctx, cfg, query, []any{table}, func(rows *sql.Rows) error {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return err
		}
		stmts = append(stmts, strings.TrimSpace(stmt)+";")
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read definition of %s: %w", table, err)
	}
	if len(stmts) == 0 {
		return "", fmt.Errorf("table %s not found", rules.QualifiedName(schema, table))
	}
	return strings.Join(stmts, "\n\n"), nil
}

// Explain renders EXPLAIN QUERY PLAN as an indented tree. SQLite cannot
// analyze, so analyze is ignored.
func (a *Adapter) Explain(ctx context.Context, cfg core.ConnectionConfig, query string, _ bool) (*core.ExplainResult, error) {
	stmt := "EXPLAIN QUERY PLAN " + strings.TrimSuffix(strings.TrimSpace(query), ";")

	type node struct {
		id, parent int
		detail     string
	}
	var nodes []node
	start := time.Now()
	err := a.Query(ctx, cfg, stmt, nil, func(rows *sql.Rows) error {
		var n node
		var notUsed int
		if err := rows.Scan(&n.id, &n.parent, &notUsed, &n.detail); err != nil {
			return err
		}
		nodes = append(nodes, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to explain query: %w", err)
	}

	depth := map[int]int{0: -1}
	var b strings.Builder
	for _, n := range nodes {
		d := depth[n.parent] + 1
		depth[n.id] = d
		b.WriteString(strings.Repeat("  ", d))
		b.WriteString(n.detail)
		b.WriteByte('\n')
	}

	return &core.ExplainResult{
		Plan:     strings.TrimSuffix(b.String(), "\n"),
		Format:   "text",
		Duration: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// GetEditContext introspects a table through the table_info and
// foreign_key_list pragmas.
func (a *Adapter) GetEditContext(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	if schema == "" {
		schema = rules.DefaultSchema()
	}

	var (
		columns []core.ColumnInfo
		pkOrder = map[int]string{}
		refs    = map[string]*core.ForeignKeyRef{}
	)
	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		err := adapter.QueryConn(ctx, conn,
			`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?, ?) ORDER BY cid`,
			[]any{table, schema}, func(rows *sql.Rows) error {
				var (
					cid, notNull, pk int
					col              core.ColumnInfo
				)
				if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &pk); err != nil {
					return err
				}
				col.OrdinalPosition = cid + 1
				col.IsNullable = notNull == 0 && pk == 0
				col.DataType = strings.ToLower(col.DataType)
				if pk > 0 {
					col.IsPrimaryKey = true
					pkOrder[pk] = col.Name
				}
				columns = append(columns, col)
				return nil
			})
		if err != nil {
			return fmt.Errorf("failed to query column metadata: %w", err)
		}

		return adapter.QueryConn(ctx, conn,
			`SELECT "from", "table", COALESCE("to", '') FROM pragma_foreign_key_list(?, ?)`,
			[]any{table, schema}, func(rows *sql.Rows) error {
				var col string
				ref := &core.ForeignKeyRef{}
				if err := rows.Scan(&col, &ref.Table, &ref.Column); err != nil {
					return err
				}
				refs[col] = ref
				return nil
			})
	})
	if err != nil {
		return nil, err
	}

	pk := make([]string, 0, len(pkOrder))
	for i := 1; i <= len(pkOrder); i++ {
		pk = append(pk, pkOrder[i])
	}
	for i := range columns {
		columns[i].ForeignKey = refs[columns[i].Name]
	}
	return adapter.BuildEditContext(schema, table, columns, pk)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
