package mysql

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

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
func New(deps adapter.Deps) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(driver{}, deps)}
}

const systemSchemas = `('mysql', 'information_schema', 'performance_schema', 'sys')`

// GetSchemas lists databases with their tables and views.
func (a *Adapter) GetSchemas(ctx context.Context, cfg core.ConnectionConfig) ([]core.SchemaInfo, error) {
	query := `
		SELECT s.SCHEMA_NAME, COALESCE(t.TABLE_NAME, ''), COALESCE(t.TABLE_TYPE, '')
		FROM information_schema.SCHEMATA s
		LEFT JOIN information_schema.TABLES t ON t.TABLE_SCHEMA = s.SCHEMA_NAME
		WHERE s.SCHEMA_NAME NOT IN ` + systemSchemas + `
		ORDER BY s.SCHEMA_NAME, t.TABLE_NAME`

	set := adapter.NewSchemaSet()
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var schema, name, kind string
		if err := rows.Scan(&schema, &name, &kind); err != nil {
			return err
		}
		set.Add(schema, name, kind == "VIEW")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return set.List(), nil
}

// GetTypes reports ENUM and SET columns as types, since MySQL has no
// user-defined types.
func (a *Adapter) GetTypes(ctx context.Context, cfg core.ConnectionConfig) ([]core.TypeInfo, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, DATA_TYPE, COLUMN_TYPE
		FROM information_schema.COLUMNS
		WHERE DATA_TYPE IN ('enum', 'set') AND TABLE_SCHEMA NOT IN ` + systemSchemas + `
		ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION`

	types := []core.TypeInfo{}
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var schema, table, column, kind, columnType string
		if err := rows.Scan(&schema, &table, &column, &kind, &columnType); err != nil {
			return err
		}
		types = append(types, core.TypeInfo{
			Schema: schema,
			Name:   table + "." + column,
			Kind:   kind,
			Values: parseEnumValues(columnType),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	return types, nil
}

// parseEnumValues extracts the members of enum('a','b') or set('a','b').
func parseEnumValues(columnType string) []string {
	open := strings.IndexByte(columnType, '(')
	end := strings.LastIndexByte(columnType, ')')
	if open < 0 || end <= open {
		return nil
	}
	body := columnType[open+1 : end]

	var (
		values []string
		cur    strings.Builder
		inStr  bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case !inStr && ch == '\'':
			inStr = true
		case inStr && ch == '\'' && i+1 < len(body) && body[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case inStr && ch == '\\' && i+1 < len(body):
			cur.WriteByte(body[i+1])
			i++
		case inStr && ch == '\'':
			inStr = false
			values = append(values, cur.String())
			cur.Reset()
		case inStr:
			cur.WriteByte(ch)
		}
	}
	return values
}

// GetSequences returns no sequences; MySQL uses AUTO_INCREMENT instead.
func (a *Adapter) GetSequences(context.Context, core.ConnectionConfig) ([]core.SequenceInfo, error) {
	return []core.SequenceInfo{}, nil
}

// GetTableDDL returns the output of SHOW CREATE TABLE.
func (a *Adapter) GetTableDDL(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (string, error) {
	rules := dialect.For(core.MySQL)
	schema = adapter.SchemaOrDefault(schema, cfg, rules)
	target := rules.QualifiedName(schema, table)

	var name, ddl string
	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, "SHOW CREATE TABLE "+target).Scan(&name, &ddl)
	})
	if err != nil {
		return "", fmt.Errorf("failed to read definition of %s: %w", target, err)
	}
	return ddl + ";", nil
}

// Explain uses EXPLAIN FORMAT=JSON, or EXPLAIN ANALYZE (tree text) when analyze is set.
func (a *Adapter) Explain(ctx context.Context, cfg core.ConnectionConfig, query string, analyze bool) (*core.ExplainResult, error) {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	res := &core.ExplainResult{Format: "json", Analyzed: analyze}
	stmt := "EXPLAIN FORMAT=JSON " + query
	if analyze {
		res.Format = "text"
		stmt = "EXPLAIN ANALYZE " + query
	}

	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		start := time.Now()
		if err := conn.QueryRowContext(ctx, stmt).Scan(&res.Plan); err != nil {
			return err
		}
		res.Duration = float64(time.Since(start).Microseconds()) / 1000
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to explain query: %w", err)
	}
	return res, nil
}

const foreignKeysQuery = `
		SELECT COLUMN_NAME, REFERENCED_TABLE_SCHEMA, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL`

// GetEditContext introspects columns, primary key and foreign keys.
// An empty schema resolves to the configured database.
func (a *Adapter) GetEditContext(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	return a.GetEditContextWithForeignKeys(ctx, cfg, schema, table, foreignKeysQuery, adapter.SchemaTableArgs)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
