package postgres

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

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
func New(deps adapter.Deps) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(driver{}, deps)}
}

var timeNow = time.Now

const systemSchemas = `('pg_catalog', 'information_schema')`

// GetSchemas lists user schemas with their tables and views.
func (a *Adapter) GetSchemas(ctx context.Context, cfg core.ConnectionConfig) ([]core.SchemaInfo, error) {
	query := `
		SELECT n.nspname, COALESCE(c.relname, ''), COALESCE(c.relkind::text, '')
		FROM pg_catalog.pg_namespace n
		LEFT JOIN pg_catalog.pg_class c
		  ON c.relnamespace = n.oid AND c.relkind IN ('r', 'p', 'v', 'm', 'f')
		WHERE n.nspname NOT IN ` + systemSchemas + `
		  AND n.nspname NOT LIKE 'pg_toast%'
		  AND n.nspname NOT LIKE 'pg_temp%'
		ORDER BY n.nspname, c.relname`

	set := adapter.NewSchemaSet()
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var schema, name, kind string
		if err := rows.Scan(&schema, &name, &kind); err != nil {
			return err
		}
		set.Add(schema, name, kind == "v" || kind == "m")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return set.List(), nil
}

// GetTypes lists enum, domain and composite types.
func (a *Adapter) GetTypes(ctx context.Context, cfg core.ConnectionConfig) ([]core.TypeInfo, error) {
	query := `
		SELECT n.nspname, t.typname,
		       CASE t.typtype WHEN 'e' THEN 'enum' WHEN 'd' THEN 'domain' ELSE 'composite' END,
		       COALESCE((SELECT string_agg(e.enumlabel, E'\n' ORDER BY e.enumsortorder)
		                 FROM pg_catalog.pg_enum e WHERE e.enumtypid = t.oid), '')
		FROM pg_catalog.pg_type t
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname NOT IN ` + systemSchemas + `
		  AND n.nspname NOT LIKE 'pg_toast%'
		  AND (t.typtype IN ('e', 'd')
		       OR (t.typtype = 'c' AND EXISTS (
		           SELECT 1 FROM pg_catalog.pg_class c WHERE c.oid = t.typrelid AND c.relkind = 'c')))
		ORDER BY n.nspname, t.typname`

	types := []core.TypeInfo{}
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var info core.TypeInfo
		var labels string
		if err := rows.Scan(&info.Schema, &info.Name, &info.Kind, &labels); err != nil {
			return err
		}
		if labels != "" {
			info.Values = strings.Split(labels, "\n")
		}
		types = append(types, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	return types, nil
}

// GetSequences lists sequences from pg_sequences.
func (a *Adapter) GetSequences(ctx context.Context, cfg core.ConnectionConfig) ([]core.SequenceInfo, error) {
	query := `
		SELECT schemaname, sequencename, data_type::text,
		       COALESCE(start_value, 0), COALESCE(increment_by, 0),
		       COALESCE(min_value, 0), COALESCE(max_value, 0)
		FROM pg_catalog.pg_sequences
		WHERE schemaname NOT IN ` + systemSchemas + `
		ORDER BY schemaname, sequencename`

	seqs := []core.SequenceInfo{}
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var s core.SequenceInfo
		if err := rows.Scan(&s.Schema, &s.Name, &s.DataType, &s.StartValue, &s.Increment, &s.MinValue, &s.MaxValue); err != nil {
			return err
		}
		seqs = append(seqs, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	return seqs, nil
}

// GetTableDDL rebuilds a CREATE TABLE statement from the catalog, followed
// by the definitions of indexes that do not back a constraint.
func (a *Adapter) GetTableDDL(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (string, error) {
	rules := dialect.For(core.PostgreSQL)
	schema = adapter.SchemaOrDefault(schema, cfg, rules)
	target := rules.QualifiedName(schema, table)

	columnsQuery := `
		SELECT a.attname,
		       pg_catalog.format_type(a.atttypid, a.atttypmod),
		       a.attnotnull,
		       COALESCE(pg_catalog.pg_get_expr(d.adbin, d.adrelid), ''),
		       a.attidentity::text
		FROM pg_catalog.pg_attribute a
		LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE a.attrelid = $1::regclass AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`

	constraintsQuery := `
		SELECT conname, pg_catalog.pg_get_constraintdef(oid, true)
		FROM pg_catalog.pg_constraint
		WHERE conrelid = $1::regclass AND contype IN ('p', 'u', 'f', 'c', 'x')
		ORDER BY CASE contype WHEN 'p' THEN 0 WHEN 'u' THEN 1 WHEN 'f' THEN 2 ELSE 3 END, conname`

	indexesQuery := `
		SELECT pg_catalog.pg_get_indexdef(i.indexrelid)
		FROM pg_catalog.pg_index i
		WHERE i.indrelid = $1::regclass
		  AND NOT EXISTS (SELECT 1 FROM pg_catalog.pg_constraint c WHERE c.conindid = i.indexrelid)
		ORDER BY i.indexrelid`

	var (
		cols        []adapter.DDLColumn
		constraints []adapter.DDLConstraint
		indexes     []string
	)
	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		err := adapter.QueryConn(ctx, conn, columnsQuery, []any{target}, func(rows *sql.Rows) error {
			var c adapter.DDLColumn
			var identity string
			if err := rows.Scan(&c.Name, &c.Type, &c.NotNull, &c.Default, &identity); err != nil {
				return err
			}
			switch identity {
			case "a":
				c.Identity = "GENERATED ALWAYS AS IDENTITY"
			case "d":
				c.Identity = "GENERATED BY DEFAULT AS IDENTITY"
			}
			cols = append(cols, c)
			return nil
		})
		if err != nil {
			return err
		}
		err = adapter.QueryConn(ctx, conn, constraintsQuery, []any{target}, func(rows *sql.Rows) error {
			var c adapter.DDLConstraint
			if err := rows.Scan(&c.Name, &c.Definition); err != nil {
				return err
			}
			constraints = append(constraints, c)
			return nil
		})
		if err != nil {
			return err
		}
		return adapter.QueryConn(ctx, conn, indexesQuery, []any{target}, func(rows *sql.Rows) error {
			var def string
			if err := rows.Scan(&def); err != nil {
				return err
			}
			indexes = append(indexes, def)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to read definition of %s: %w", target, err)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s not found", target)
	}
	return adapter.RenderTableDDL(rules, schema, table, cols, constraints, indexes), nil
}

// Explain runs EXPLAIN with JSON output. With analyze the statement is
// executed inside a transaction that is always rolled back.
func (a *Adapter) Explain(ctx context.Context, cfg core.ConnectionConfig, query string, analyze bool) (*core.ExplainResult, error) {
	opts := "FORMAT JSON"
	if analyze {
		opts = "ANALYZE, BUFFERS, FORMAT JSON"
	}
	stmt := fmt.Sprintf("EXPLAIN (%s) %s", opts, strings.TrimSuffix(strings.TrimSpace(query), ";"))

	res := &core.ExplainResult{Format: "json", Analyzed: analyze}
	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: !analyze})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		start := timeNow()
		if err := tx.QueryRowContext(ctx, stmt).Scan(&res.Plan); err != nil {
			return err
		}
		res.Duration = float64(timeNow().Sub(start).Microseconds()) / 1000
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to explain query: %w", err)
	}
	return res, nil
}

const foreignKeysQuery = `
		SELECT kcu.column_name, ccu.table_schema, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name AND ccu.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1 AND tc.table_name = $2`

// GetEditContext introspects columns, primary key and foreign keys.
func (a *Adapter) GetEditContext(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	return a.GetEditContextWithForeignKeys(ctx, cfg, schema, table, foreignKeysQuery, adapter.SchemaTableArgs)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
