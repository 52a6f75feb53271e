package output

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Table renders rows under header in the effective mode. JSON mode emits
// an array of objects keyed by header.
func (r *Renderer) Table(header []string, rows [][]any) error {
	if r.EffectiveMode() == ModeJSON {
		objs := make([]map[string]any, len(rows))
		for i, row := range rows {
			obj := make(map[string]any, len(header))
			for j, col := range header {
				if j < len(row) {
					obj[col] = row[j]
				}
			}
			objs[i] = obj
		}
		return r.JSON(objs)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	head := make(table.Row, len(header))
	for i, h := range header {
		head[i] = h
	}
	t.AppendHeader(head)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = FormatValue(v)
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	if w := r.TerminalWidth(); w > 0 {
		t.SetAllowedRowLength(w)
	}
	t.Render()
	return nil
}

// Results renders every statement result of a script.
func (r *Renderer) Results(res *core.MultiStatementResult) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(res)
	}
	for i, st := range res.Results {
		if len(res.Results) > 1 {
			if i > 0 {
				r.Println("")
			}
			r.Header(2, fmt.Sprintf("Statement %d", st.StatementIndex+1))
			r.SQL(st.Statement)
		}
		if !st.IsDataReturning {
			r.Println(r.Muted(fmt.Sprintf("%d rows affected (%.1f ms)", st.RowCount, st.DurationMs)))
			continue
		}
		if err := r.resultTable(st); err != nil {
			return err
		}
		r.Println(r.Muted(fmt.Sprintf("(%d rows, %.1f ms)", st.RowCount, st.DurationMs)))
	}
	return nil
}

func (r *Renderer) resultTable(st core.StatementResult) error {
	if len(st.Fields) == 0 {
		return nil
	}
	header := make([]string, len(st.Fields))
	for i, f := range st.Fields {
		header[i] = f.Name
	}
	return r.Table(header, st.Rows)
}

// EditResult renders the outcome of applying or previewing edits.
func (r *Renderer) EditResult(res *core.EditResult) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(res)
	}
	for _, stmt := range res.ExecutedSQL {
		r.SQL(stmt + ";")
	}
	for _, e := range res.Errors {
		r.Error(fmt.Sprintf("%s [%s]: %s", e.OperationID, e.Kind, e.Message))
	}
	if res.Success {
		r.Success(fmt.Sprintf("%d rows affected", res.RowsAffected))
	}
	return nil
}

// DDLResult renders the outcome of a DDL execution.
func (r *Renderer) DDLResult(res *core.DDLResult) error {
	if r.EffectiveMode() == ModeJSON {
		return r.JSON(res)
	}
	for _, stmt := range res.ExecutedSQL {
		r.SQL(stmt + ";")
	}
	for _, msg := range res.Errors {
		r.Error(msg)
	}
	if res.Success {
		r.Success(fmt.Sprintf("%d statements executed", len(res.ExecutedSQL)))
	}
	return nil
}

// FormatValue renders a scanned column value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "0x" + strings.ToUpper(hex.EncodeToString(x))
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
