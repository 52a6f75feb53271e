package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func newTestRenderer(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestMode(t *testing.T) {
	assert.Equal(t, ModeText, Mode("TEXT"))
	assert.Equal(t, ModeMarkdown, Mode("md"))
	assert.Equal(t, ModeJSON, Mode("json"))
	assert.Equal(t, ModeAuto, Mode("yaml"))
}

func TestEffectiveMode(t *testing.T) {
	r, _, _ := newTestRenderer(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTestRenderer(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Title", FormatHeader(2, "Title"))
	assert.Equal(t, "###### Deep", FormatHeader(9, "Deep"))
	assert.Equal(t, "- **Rows:** 3", FormatKeyValue("Rows", "3"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", FormatValue(nil))
	assert.Equal(t, "0xCAFE", FormatValue([]byte{0xca, 0xfe}))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "2026-01-02T03:04:05Z", FormatValue(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestResults_Markdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)

	err := r.Results(&core.MultiStatementResult{
		Results: []core.StatementResult{
			{Statement: "UPDATE t SET a = 1", RowCount: 2},
			{
				Statement:       "SELECT id, name FROM t",
				StatementIndex:  1,
				IsDataReturning: true,
				Fields:          []core.FieldInfo{{Name: "id"}, {Name: "name"}},
				Rows:            [][]any{{int64(1), "a"}, {int64(2), nil}},
				RowCount:        2,
			},
		},
		StatementCount: 2,
	})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "## Statement 1")
	assert.Contains(t, s, "```sql\nUPDATE t SET a = 1\n```")
	assert.Contains(t, s, "2 rows affected")
	assert.Contains(t, s, "| id | name |")
	assert.Contains(t, s, "| 2 | NULL |")
	assert.NotContains(t, s, "\x1b[")
}

func TestTable_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)

	require.NoError(t, r.Table([]string{"name", "kind"}, [][]any{{"mood", "enum"}}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []map[string]any{{"name": "mood", "kind": "enum"}}, got)
}

func TestEditResult_Text(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)

	err := r.EditResult(&core.EditResult{
		Success:      true,
		RowsAffected: 1,
		ExecutedSQL:  []string{`DELETE FROM "t" WHERE "id" = 1`},
		Errors:       []core.OperationError{{OperationID: "op2", Message: "delete requires at least one primary key value", Kind: core.KindValidation}},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), `DELETE FROM "t" WHERE "id" = 1;`)
	assert.Contains(t, out.String(), "1 rows affected")
	assert.Contains(t, errOut.String(), "op2 [validation]")
}

func TestDDLResult_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)

	require.NoError(t, r.DDLResult(&core.DDLResult{ExecutedSQL: []string{"DROP TABLE t"}, Errors: []string{"boom"}}))

	var got core.DDLResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Equal(t, []string{"boom"}, got.Errors)
}
