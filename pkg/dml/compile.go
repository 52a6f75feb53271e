package dml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// Compile turns one operation into a parameterized statement.
// Values are bound through placeholders, never embedded in the SQL.
func Compile(op core.EditOperation, ctx *core.EditContext, d core.Dialect) (core.ParameterizedQuery, error) {
	rules := dialect.For(d)
	binder := dialect.NewParamBinder(rules)
	sql, err := build(op, ctx, rules, binder)
	if err != nil {
		return core.ParameterizedQuery{}, err
	}
	return core.ParameterizedQuery{SQL: sql, Params: binder.Params()}, nil
}

// Preview renders the same statement as Compile with literal values inlined.
// The result is for display only.
func Preview(op core.EditOperation, ctx *core.EditContext, d core.Dialect) (string, error) {
	rules := dialect.For(d)
	return build(op, ctx, rules, dialect.NewLiteralBinder(rules))
}

func build(op core.EditOperation, ctx *core.EditContext, rules *dialect.Rules, b dialect.Binder) (string, error) {
	if ctx == nil || ctx.Table == "" {
		return "", &core.ValidationError{Message: "edit context must name a table"}
	}
	table := rules.QualifiedName(ctx.Schema, ctx.Table)

	switch o := op.(type) {
	case *core.RowUpdate:
		return buildUpdate(o, ctx, table, rules, b)
	case *core.RowInsert:
		return buildInsert(o, ctx, table, rules, b)
	case *core.RowDelete:
		return buildDelete(o, ctx, table, rules, b)
	default:
		return "", fmt.Errorf("unsupported edit operation %T", op)
	}
}

func buildUpdate(o *core.RowUpdate, ctx *core.EditContext, table string, rules *dialect.Rules, b dialect.Binder) (string, error) {
	changes := orderChanges(o.Changes, ctx)
	sets := make([]string, 0, len(changes))
	for _, c := range changes {
		ph, err := b.Bind(c.NewValue, dataTypeOf(ctx, c.Column, c.DataType))
		if err != nil {
			return "", fmt.Errorf("column %s: %w", c.Column, err)
		}
		sets = append(sets, rules.QuoteIdentifier(c.Column)+" = "+ph)
	}

	where, err := buildWhere(o.PrimaryKeys, ctx, rules, b)
	if err != nil {
		return "", err
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE " + where, nil
}

func buildInsert(o *core.RowInsert, ctx *core.EditContext, table string, rules *dialect.Rules, b dialect.Binder) (string, error) {
	cols := insertColumns(o, ctx)
	quoted := make([]string, len(cols))
	values := make([]string, len(cols))
	for i, col := range cols {
		ph, err := b.Bind(o.Values[col], dataTypeOf(ctx, col, ""))
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col, err)
		}
		quoted[i] = rules.QuoteIdentifier(col)
		values[i] = ph
	}
	return "INSERT INTO " + table + " (" + strings.Join(quoted, ",") + ") VALUES (" + strings.Join(values, ", ") + ")", nil
}

func buildDelete(o *core.RowDelete, ctx *core.EditContext, table string, rules *dialect.Rules, b dialect.Binder) (string, error) {
	where, err := buildWhere(o.PrimaryKeys, ctx, rules, b)
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + table + " WHERE " + where, nil
}

// buildWhere renders one equality predicate per key, in the order supplied.
func buildWhere(pks []core.PrimaryKeyValue, ctx *core.EditContext, rules *dialect.Rules, b dialect.Binder) (string, error) {
	preds := make([]string, 0, len(pks))
	for _, pk := range pks {
		col := rules.QuoteIdentifier(pk.Column)
		if pk.Value == nil {
			preds = append(preds, col+" IS NULL")
			continue
		}
		ph, err := b.Bind(pk.Value, dataTypeOf(ctx, pk.Column, pk.DataType))
		if err != nil {
			return "", fmt.Errorf("primary key %s: %w", pk.Column, err)
		}
		preds = append(preds, col+" = "+ph)
	}
	return strings.Join(preds, " AND "), nil
}

// orderChanges keeps the last change per column and sorts by the column
// order of the context; unknown columns follow in the order supplied.
func orderChanges(changes []core.CellChange, ctx *core.EditContext) []core.CellChange {
	last := make(map[string]int, len(changes))
	for i, c := range changes {
		last[c.Column] = i
	}
	out := make([]core.CellChange, 0, len(last))
	for i, c := range changes {
		if last[c.Column] == i {
			out = append(out, c)
		}
	}

	rank := columnRank(ctx)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i].Column]
		rj, jok := rank[out[j].Column]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

// insertColumns orders the keys of Values: the operation's own column list
// first, then the context's column order, then any remaining keys sorted.
func insertColumns(o *core.RowInsert, ctx *core.EditContext) []string {
	order := o.Columns
	if len(order) == 0 {
		order = make([]string, 0, len(ctx.Columns))
		for _, c := range ctx.Columns {
			order = append(order, c.Name)
		}
	}

	cols := make([]string, 0, len(o.Values))
	seen := make(map[string]struct{}, len(o.Values))
	for _, name := range order {
		if _, ok := o.Values[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}

	var rest []string
	for name := range o.Values {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func columnRank(ctx *core.EditContext) map[string]int {
	rank := make(map[string]int, len(ctx.Columns))
	for i, c := range ctx.Columns {
		rank[c.Name] = i
	}
	return rank
}

func dataTypeOf(ctx *core.EditContext, column, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if col, ok := ctx.Column(column); ok {
		return col.DataType
	}
	return ""
}
