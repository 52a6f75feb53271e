package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func TestSplit_Basic(t *testing.T) {
	for _, d := range core.Dialects() {
		t.Run(string(d), func(t *testing.T) {
			got := SplitText("SELECT 1;\n  SELECT 2 ;\n;\nSELECT 3", d)
			assert.Equal(t, []string{"SELECT 1", "SELECT 2", "SELECT 3"}, got)
		})
	}
}

func TestSplit_SemicolonsInLiterals(t *testing.T) {
	tests := []struct {
		name    string
		dialect core.Dialect
		input   string
		want    []string
	}{
		{
			name:    "single quoted string",
			dialect: core.PostgreSQL,
			input:   "SELECT 'a;b'; SELECT 'it''s;'",
			want:    []string{"SELECT 'a;b'", "SELECT 'it''s;'"},
		},
		{
			name:    "quoted identifier",
			dialect: core.SQLite,
			input:   `SELECT "x;y" FROM t; SELECT 1`,
			want:    []string{`SELECT "x;y" FROM t`, "SELECT 1"},
		},
		{
			name:    "mysql backslash escape",
			dialect: core.MySQL,
			input:   `SELECT 'a\';b'; SELECT 2`,
			want:    []string{`SELECT 'a\';b'`, "SELECT 2"},
		},
		{
			name:    "mysql backticks",
			dialect: core.MySQL,
			input:   "SELECT `a;b` FROM t; SELECT 2",
			want:    []string{"SELECT `a;b` FROM t", "SELECT 2"},
		},
		{
			name:    "mssql brackets",
			dialect: core.MSSQL,
			input:   "SELECT [a;]]b] FROM t; SELECT 2",
			want:    []string{"SELECT [a;]]b] FROM t", "SELECT 2"},
		},
		{
			name:    "postgres escape string",
			dialect: core.PostgreSQL,
			input:   `SELECT E'a\';b'; SELECT 2`,
			want:    []string{`SELECT E'a\';b'`, "SELECT 2"},
		},
		{
			name:    "postgres dollar quoting",
			dialect: core.PostgreSQL,
			input:   "CREATE FUNCTION f() RETURNS int AS $body$ BEGIN RETURN 1; END; $body$ LANGUAGE plpgsql; SELECT f()",
			want: []string{
				"CREATE FUNCTION f() RETURNS int AS $body$ BEGIN RETURN 1; END; $body$ LANGUAGE plpgsql",
				"SELECT f()",
			},
		},
		{
			name:    "postgres placeholders are not dollar quotes",
			dialect: core.PostgreSQL,
			input:   "SELECT $1; SELECT $2",
			want:    []string{"SELECT $1", "SELECT $2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitText(tt.input, tt.dialect))
		})
	}
}

func TestSplit_Comments(t *testing.T) {
	input := `-- leading comment; with semicolon
SELECT 1; /* block; comment */
-- only a comment;
SELECT 2 -- trailing
;`
	got := SplitText(input, core.PostgreSQL)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2 -- trailing"}, got)
}

func TestSplit_NestedBlockCommentPostgres(t *testing.T) {
	got := SplitText("/* outer /* inner; */ still; */ SELECT 1; SELECT 2", core.PostgreSQL)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, got)
}

func TestSplit_MySQLHashComment(t *testing.T) {
	got := SplitText("# note; here\nSELECT 1;", core.MySQL)
	assert.Equal(t, []string{"SELECT 1"}, got)
}

func TestSplit_MySQLDelimiter(t *testing.T) {
	input := `DELIMITER //
CREATE PROCEDURE p()
BEGIN
  SELECT 1;
  SELECT 2;
END//
DELIMITER ;
CALL p();`

	got := SplitText(input, core.MySQL)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "SELECT 2;\nEND")
	assert.Equal(t, "CALL p()", got[1])
}

func TestSplit_MySQLRoutineWithoutDelimiter(t *testing.T) {
	input := `CREATE PROCEDURE p()
BEGIN
  IF 1 = 1 THEN
    SELECT 1;
  END IF;
  SELECT CASE WHEN 1 THEN 'a' END;
END;
SELECT 3;`

	got := SplitText(input, core.MySQL)
	require.Len(t, got, 2)
	assert.Equal(t, "SELECT 3", got[1])
}

func TestSplit_SQLiteTrigger(t *testing.T) {
	input := `CREATE TRIGGER trg AFTER INSERT ON t
BEGIN
  UPDATE t SET n = n + 1;
  INSERT INTO log VALUES (new.id);
END;
SELECT 1;`

	got := SplitText(input, core.SQLite)
	require.Len(t, got, 2)
	assert.True(t, len(got[0]) > 0 && got[0][len(got[0])-3:] == "END")
	assert.Equal(t, "SELECT 1", got[1])
}

func TestSplit_SQLiteTransactionIsNotABlock(t *testing.T) {
	got := SplitText("BEGIN; INSERT INTO t VALUES (1); END;", core.SQLite)
	assert.Equal(t, []string{"BEGIN", "INSERT INTO t VALUES (1)", "END"}, got)
}

func TestSplit_MSSQL(t *testing.T) {
	t.Run("GO separator", func(t *testing.T) {
		input := "SELECT 1\nGO\nSELECT 2\ngo 2\nSELECT 3"
		assert.Equal(t, []string{"SELECT 1", "SELECT 2", "SELECT 3"}, SplitText(input, core.MSSQL))
	})

	t.Run("BEGIN END block", func(t *testing.T) {
		input := "IF 1 = 1\nBEGIN\n  SELECT 1;\n  SELECT 2;\nEND;\nSELECT 3;"
		got := SplitText(input, core.MSSQL)
		require.Len(t, got, 2)
		assert.Equal(t, "SELECT 3", got[1])
	})

	t.Run("BEGIN TRANSACTION", func(t *testing.T) {
		got := SplitText("BEGIN TRANSACTION; UPDATE t SET a = 1; COMMIT;", core.MSSQL)
		assert.Equal(t, []string{"BEGIN TRANSACTION", "UPDATE t SET a = 1", "COMMIT"}, got)
	})

	t.Run("TRY CATCH", func(t *testing.T) {
		input := "BEGIN TRY\n SELECT 1/0;\nEND TRY\nBEGIN CATCH\n SELECT ERROR_MESSAGE();\nEND CATCH;\nSELECT 2;"
		got := SplitText(input, core.MSSQL)
		require.Len(t, got, 2)
		assert.Equal(t, "SELECT 2", got[1])
	})
}

func TestSplit_Positions(t *testing.T) {
	input := "SELECT 1;\n\n-- note\n  SELECT 2;"
	got := Split(input, core.PostgreSQL)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, 0, got[0].Offset)
	assert.Equal(t, 4, got[1].Line)
	assert.Equal(t, "SELECT 2", input[got[1].Offset:got[1].Offset+8])
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split("", core.PostgreSQL))
	assert.Empty(t, Split("  ;\n -- nothing\n", core.MySQL))
}

func TestIsDataReturning(t *testing.T) {
	tests := []struct {
		dialect core.Dialect
		sql     string
		want    bool
	}{
		{core.PostgreSQL, "select * from t", true},
		{core.PostgreSQL, "WITH x AS (SELECT 1) SELECT * FROM x", true},
		{core.PostgreSQL, "INSERT INTO t VALUES (1)", false},
		{core.PostgreSQL, "INSERT INTO t VALUES (1) RETURNING id", true},
		{core.PostgreSQL, "-- comment\nSHOW search_path", true},
		{core.MySQL, "DESCRIBE t", true},
		{core.MySQL, "UPDATE t SET a = 1", false},
		{core.SQLite, "PRAGMA table_info(t)", true},
		{core.SQLite, "DELETE FROM t RETURNING *", true},
		{core.MSSQL, "INSERT INTO t OUTPUT inserted.id VALUES (1)", true},
		{core.MSSQL, "EXEC sp_who", true},
		{core.MSSQL, "CREATE TABLE t (id int)", false},
		{core.PostgreSQL, "SELECT 'returning'", true},
		{core.PostgreSQL, "UPDATE t SET note = 'returning'", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect)+"/"+tt.sql, func(t *testing.T) {
			stmts := Split(tt.sql, tt.dialect)
			require.Len(t, stmts, 1)
			assert.Equal(t, tt.want, stmts[0].IsDataReturning(tt.dialect))
		})
	}
}
