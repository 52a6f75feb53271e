package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/internal/cli/config"
	"github.com/leapstack-labs/dbdesk/internal/history"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

type cliResult struct {
	Out    string
	ErrOut string
	Err    error
}

// runCLI runs dbdesk against a SQLite database in dir.
func runCLI(t *testing.T, dir, stdin string, args ...string) cliResult {
	t.Helper()
	config.ResetConfig()

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args,
		"--type", "sqlite",
		"--path", filepath.Join(dir, "app.db"),
		"--history", filepath.Join(dir, "history.db"),
	))
	err := cmd.Execute()
	return cliResult{Out: out.String(), ErrOut: errOut.String(), Err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const usersTable = `name: users
columns:
  - name: id
    dataType: integer
    isPrimaryKey: true
  - name: name
    dataType: text
    isNullable: true
`

func TestRootCommand_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	for _, sub := range []string{"ping", "query", "explain", "inspect", "edit", "table", "history", "completion"} {
		assert.Contains(t, buf.String(), sub)
	}
}

func TestRootCommand_Completion(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"completion", "bash"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "dbdesk")
}

func TestCLI_SQLiteWorkflow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	res := runCLI(t, dir, "", "ping", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	assert.Contains(t, res.Out, `"ok": true`)

	// Dry run prints DDL without creating the table.
	tablePath := writeFile(t, dir, "users.yaml", usersTable)
	res = runCLI(t, dir, "", "table", "create", tablePath, "--dry-run", "-o", "markdown")
	require.NoError(t, res.Err, res.ErrOut)
	assert.Contains(t, res.Out, "```sql")
	assert.Contains(t, res.Out, `CREATE TABLE "users"`)

	res = runCLI(t, dir, "", "table", "create", tablePath, "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	var ddlRes core.DDLResult
	require.NoError(t, json.Unmarshal([]byte(res.Out), &ddlRes))
	assert.True(t, ddlRes.Success)

	res = runCLI(t, dir, "", "table", "context", "users", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	var editCtx core.EditContext
	require.NoError(t, json.Unmarshal([]byte(res.Out), &editCtx))
	assert.Equal(t, []string{"id"}, editCtx.PrimaryKeyColumns)

	editPath := writeFile(t, dir, "edits.yaml", `table: users
operations:
  - type: insert
    values: {id: 1, name: Ann}
  - type: insert
    values: {id: 2, name: Bob}
`)
	res = runCLI(t, dir, "", "edit", "preview", editPath, "-o", "markdown")
	require.NoError(t, res.Err, res.ErrOut)
	assert.Contains(t, res.Out, `INSERT INTO "users"`)

	res = runCLI(t, dir, "", "edit", "apply", editPath, "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	var editRes core.EditResult
	require.NoError(t, json.Unmarshal([]byte(res.Out), &editRes))
	assert.True(t, editRes.Success)
	assert.Equal(t, int64(2), editRes.RowsAffected)

	// Duplicate key: the whole batch rolls back and the command fails.
	dupPath := writeFile(t, dir, "dup.yaml", `table: users
operations:
  - type: update
    primaryKeys: [{column: id, value: 1}]
    changes: [{column: name, oldValue: Ann, newValue: Anne}]
  - type: insert
    values: {id: 2, name: again}
`)
	res = runCLI(t, dir, "", "edit", "apply", dupPath, "-o", "json")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "2 of 2 operations failed")

	res = runCLI(t, dir, "SELECT name FROM users ORDER BY id;", "query", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	var qres core.MultiStatementResult
	require.NoError(t, json.Unmarshal([]byte(res.Out), &qres))
	require.Len(t, qres.Results, 1)
	require.Len(t, qres.Results[0].Rows, 2)
	assert.Equal(t, "Ann", qres.Results[0].Rows[0][0])

	res = runCLI(t, dir, "", "inspect", "schemas", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	assert.Contains(t, res.Out, `"users"`)

	res = runCLI(t, dir, "", "table", "drop", "users", "--if-exists", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)

	res = runCLI(t, dir, "", "history", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(res.Out), &entries))
	require.Len(t, entries, 5)
	assert.Equal(t, history.KindDDL, entries[0].Kind)

	res = runCLI(t, dir, "", "history", "--failed", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	entries = nil
	require.NoError(t, json.Unmarshal([]byte(res.Out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, history.KindEdit, entries[0].Kind)
}

func TestCLI_QueryFailureStopsScript(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	res := runCLI(t, dir, "", "query", "CREATE TABLE t (x INTEGER); SELECT * FROM missing; INSERT INTO t VALUES (1);")
	require.Error(t, res.Err)

	var execErr *core.ExecutionError
	require.ErrorAs(t, res.Err, &execErr)
	assert.Equal(t, 1, execErr.Index)

	res = runCLI(t, dir, "", "query", "SELECT count(*) AS n FROM t", "-o", "json")
	require.NoError(t, res.Err, res.ErrOut)
	assert.Contains(t, res.Out, `"rows": [`)
}

func TestCLI_NoHistory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	res := runCLI(t, dir, "", "history", "--no-history")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "history is disabled")
}

func TestCLI_UnknownProfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dbdesk.yaml", `connections:
  local:
    type: sqlite
    path: app.db
`)
	t.Chdir(dir)
	config.ResetConfig()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"ping", "-c", "prod"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown connection "prod" (available: local)`)
}
