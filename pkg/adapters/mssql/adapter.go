package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// Adapter implements the adapter.Adapter interface for SQL Server.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQL Server adapter instance.
func New(deps adapter.Deps) *Adapter {
	return &Adapter{BaseSQLAdapter: adapter.NewBase(driver{}, deps)}
}

var rules = dialect.For(core.MSSQL)

// GetSchemas lists schemas with their tables and views.
func (a *Adapter) GetSchemas(ctx context.Context, cfg core.ConnectionConfig) ([]core.SchemaInfo, error) {
	query := `
		SELECT s.name, COALESCE(o.name, ''), COALESCE(o.type, '')
		FROM sys.schemas s
		LEFT JOIN sys.objects o ON o.schema_id = s.schema_id AND o.type IN ('U', 'V') AND o.is_ms_shipped = 0
		WHERE s.name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
		  AND s.name NOT LIKE 'db[_]%'
		ORDER BY s.name, o.name`

	set := adapter.NewSchemaSet()
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var schema, name, kind string
		if err := rows.Scan(&schema, &name, &kind); err != nil {
			return err
		}
		set.Add(schema, name, strings.TrimSpace(kind) == "V")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return set.List(), nil
}

// GetTypes lists user-defined alias and table types.
func (a *Adapter) GetTypes(ctx context.Context, cfg core.ConnectionConfig) ([]core.TypeInfo, error) {
	query := `
		SELECT SCHEMA_NAME(t.schema_id), t.name,
		       CASE WHEN t.is_table_type = 1 THEN 'table' ELSE 'alias' END
		FROM sys.types t
		WHERE t.is_user_defined = 1
		ORDER BY 1, 2`

	types := []core.TypeInfo{}
	err := a.Query(ctx, cfg, query, nil, func(rows *sql.Rows) error {
		var info core.TypeInfo
		if err := rows.Scan(&info.Schema, &info.Name, &info.Kind); err != nil {
			return err
		}
		types = append(types, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list types: %w", err)
	}
	return types, nil
}

// GetSequences lists sequences from sys.sequences.
func (a *Adapter) GetSequences(ctx context.Context, cfg core.ConnectionConfig) ([]core.SequenceInfo, error) {
	query := `
		SELECT SCHEMA_NAME(s.schema_id), s.name, TYPE_NAME(s.user_type_id),
		       CAST(s.start_value AS bigint), CAST(s.increment AS bigint),
		       CAST(s.minimum_value AS bigint), CAST(s.maximum_value AS bigint)
		FROM sys.sequences s
		ORDER BY 1, 2`

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

// GetTableDDL rebuilds a CREATE TABLE statement from sys.columns and the
// key constraints, followed by non-constraint index definitions.
func (a *Adapter) GetTableDDL(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (string, error) {
	schema = adapter.SchemaOrDefault(schema, cfg, rules)
	target := rules.QualifiedName(schema, table)

	columnsQuery := `
		SELECT c.name, TYPE_NAME(c.user_type_id), c.max_length, c.precision, c.scale,
		       c.is_nullable, c.is_identity,
		       COALESCE(CAST(ic.seed_value AS bigint), 0), COALESCE(CAST(ic.increment_value AS bigint), 0),
		       COALESCE(OBJECT_DEFINITION(c.default_object_id), '')
		FROM sys.columns c
		LEFT JOIN sys.identity_columns ic ON ic.object_id = c.object_id AND ic.column_id = c.column_id
		WHERE c.object_id = OBJECT_ID(@p1)
		ORDER BY c.column_id`

	constraintsQuery := `
		SELECT kc.name, kc.type, STRING_AGG(QUOTENAME(col.name), ', ') WITHIN GROUP (ORDER BY ic.key_ordinal)
		FROM sys.key_constraints kc
		JOIN sys.index_columns ic ON ic.object_id = kc.parent_object_id AND ic.index_id = kc.unique_index_id
		JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
		WHERE kc.parent_object_id = OBJECT_ID(@p1)
		GROUP BY kc.name, kc.type
		ORDER BY kc.type, kc.name`

	indexesQuery := `
		SELECT i.name, i.is_unique, i.type_desc,
		       STRING_AGG(QUOTENAME(col.name) + CASE WHEN ic.is_descending_key = 1 THEN ' DESC' ELSE '' END, ', ')
		         WITHIN GROUP (ORDER BY ic.key_ordinal)
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id AND ic.is_included_column = 0
		JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
		WHERE i.object_id = OBJECT_ID(@p1) AND i.is_primary_key = 0 AND i.is_unique_constraint = 0 AND i.type > 0
		GROUP BY i.name, i.is_unique, i.type_desc
		ORDER BY i.name`

	var (
		cols        []adapter.DDLColumn
		constraints []adapter.DDLConstraint
		indexes     []string
	)
	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		err := adapter.QueryConn(ctx, conn, columnsQuery, []any{target}, func(rows *sql.Rows) error {
			var (
				c                  adapter.DDLColumn
				typeName, def      string
				maxLen             int
				precision, scale   int
				nullable, identity bool
				seed, increment    int64
			)
			if err := rows.Scan(&c.Name, &typeName, &maxLen, &precision, &scale, &nullable, &identity, &seed, &increment, &def); err != nil {
				return err
			}
			c.Type = columnType(typeName, maxLen, precision, scale)
			c.NotNull = !nullable
			c.Default = def
			if identity {
				c.Identity = fmt.Sprintf("IDENTITY(%d,%d)", seed, increment)
			}
			cols = append(cols, c)
			return nil
		})
		if err != nil {
			return err
		}
		err = adapter.QueryConn(ctx, conn, constraintsQuery, []any{target}, func(rows *sql.Rows) error {
			var name, kind, columns string
			if err := rows.Scan(&name, &kind, &columns); err != nil {
				return err
			}
			keyword := "UNIQUE"
			if strings.TrimSpace(kind) == "PK" {
				keyword = "PRIMARY KEY"
			}
			constraints = append(constraints, adapter.DDLConstraint{Name: name, Definition: keyword + " (" + columns + ")"})
			return nil
		})
		if err != nil {
			return err
		}
		return adapter.QueryConn(ctx, conn, indexesQuery, []any{target}, func(rows *sql.Rows) error {
			var (
				name, typeDesc, columns string
				unique                  bool
			)
			if err := rows.Scan(&name, &unique, &typeDesc, &columns); err != nil {
				return err
			}
			stmt := "CREATE "
			if unique {
				stmt += "UNIQUE "
			}
			stmt += typeDesc + " INDEX " + rules.QuoteIdentifier(name) + " ON " + target + " (" + columns + ")"
			indexes = append(indexes, stmt)
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

// columnType renders a sys.columns type with its length or precision.
func columnType(name string, maxLen, precision, scale int) string {
	lower := strings.ToLower(name)
	switch lower {
	case "varchar", "char", "varbinary", "binary":
		if maxLen < 0 {
			return lower + "(max)"
		}
		return lower + "(" + strconv.Itoa(maxLen) + ")"
	case "nvarchar", "nchar":
		if maxLen < 0 {
			return lower + "(max)"
		}
		return lower + "(" + strconv.Itoa(maxLen/2) + ")"
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", lower, precision, scale)
	case "datetime2", "time", "datetimeoffset":
		return fmt.Sprintf("%s(%d)", lower, scale)
	default:
		return lower
	}
}

// Explain returns the XML showplan. Without analyze SHOWPLAN_XML compiles
// the query without running it; with analyze STATISTICS XML runs it and
// the plan is the last result set.
func (a *Adapter) Explain(ctx context.Context, cfg core.ConnectionConfig, query string, analyze bool) (*core.ExplainResult, error) {
	setting := "SHOWPLAN_XML"
	if analyze {
		setting = "STATISTICS XML"
	}
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	res := &core.ExplainResult{Format: "xml", Analyzed: analyze}

	err := a.WithConn(ctx, cfg, func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, "SET "+setting+" ON"); err != nil {
			return err
		}
		defer func() { _, _ = conn.ExecContext(context.WithoutCancel(ctx), "SET "+setting+" OFF") }()

		start := time.Now()
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for {
			for rows.Next() {
				cols, err := rows.Columns()
				if err != nil {
					return err
				}
				values := make([]any, len(cols))
				ptrs := make([]any, len(cols))
				for i := range values {
					ptrs[i] = &values[i]
				}
				if err := rows.Scan(ptrs...); err != nil {
					return err
				}
				if len(cols) == 1 {
					res.Plan = fmt.Sprint(values[0])
				}
			}
			if !rows.NextResultSet() {
				break
			}
		}
		res.Duration = float64(time.Since(start).Microseconds()) / 1000
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to explain query: %w", err)
	}
	return res, nil
}

const foreignKeysQuery = `
		SELECT pc.name, SCHEMA_NAME(rt.schema_id), rt.name, rc.name
		FROM sys.foreign_key_columns fkc
		JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
		JOIN sys.tables rt ON rt.object_id = fkc.referenced_object_id
		JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id
		WHERE fkc.parent_object_id = OBJECT_ID(@p1)`

// GetEditContext introspects columns, primary key and foreign keys.
func (a *Adapter) GetEditContext(ctx context.Context, cfg core.ConnectionConfig, schema, table string) (*core.EditContext, error) {
	return a.GetEditContextWithForeignKeys(ctx, cfg, schema, table, foreignKeysQuery, objectIDArgs)
}

// objectIDArgs binds the qualified table name for OBJECT_ID(@p1).
func objectIDArgs(schema, table string) []any {
	return []any{rules.QualifiedName(schema, table)}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
