package mssql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/microsoft/go-mssqldb/msdsn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/internal/testutil"
	"github.com/leapstack-labs/dbdesk/internal/testutil/mockdb"
	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(core.ConnectionConfig{
		Host:     "sql.internal",
		Port:     14330,
		Database: "Sales",
		User:     "sa",
		Password: "p@ss:word",
		SSL:      &core.SSLConfig{Mode: "require"},
	})
	require.NoError(t, err)

	parsed, err := msdsn.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sql.internal", parsed.Host)
	assert.Equal(t, uint64(14330), parsed.Port)
	assert.Equal(t, "Sales", parsed.Database)
	assert.Equal(t, "sa", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Password)
	assert.Equal(t, "dbdesk", parsed.AppName)
}

func TestBuildDSN_Defaults(t *testing.T) {
	dsn, err := buildDSN(core.ConnectionConfig{})
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://localhost:1433?app+name=dbdesk&encrypt=disable", dsn)

	_, err = buildDSN(core.ConnectionConfig{SSL: &core.SSLConfig{Mode: "bogus"}})
	require.Error(t, err)
}

func TestColumnType(t *testing.T) {
	tests := []struct {
		name                     string
		maxLen, precision, scale int
		want                     string
	}{
		{"nvarchar", 200, 0, 0, "nvarchar(100)"},
		{"nvarchar", -1, 0, 0, "nvarchar(max)"},
		{"varchar", 50, 0, 0, "varchar(50)"},
		{"decimal", 9, 10, 2, "decimal(10,2)"},
		{"datetime2", 8, 27, 7, "datetime2(7)"},
		{"int", 4, 10, 0, "int"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnType(tt.name, tt.maxLen, tt.precision, tt.scale))
	}
}

func newMocked(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	drv, mock := mockdb.New(t, core.MSSQL)
	a := New(adapter.Deps{Logger: testutil.NewTestLogger(t)})
	a.Driver = drv
	return a, mock
}

var cfg = core.ConnectionConfig{DBType: core.MSSQL, Database: "Sales"}

func TestGetTableDDL(t *testing.T) {
	a, mock := newMocked(t)
	target := "[dbo].[users]"

	mock.ExpectQuery(`FROM sys.columns c`).WithArgs(target).WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "max_length", "precision", "scale", "is_nullable", "is_identity", "seed", "inc", "def"}).
			AddRow("id", "int", 4, 10, 0, false, true, 1, 1, "").
			AddRow("name", "nvarchar", 200, 0, 0, true, false, 0, 0, "(N'anon')"),
	)
	mock.ExpectQuery(`FROM sys.key_constraints`).WithArgs(target).WillReturnRows(
		sqlmock.NewRows([]string{"name", "type", "cols"}).AddRow("PK_users", "PK", "[id]"),
	)
	mock.ExpectQuery(`FROM sys.indexes`).WithArgs(target).WillReturnRows(
		sqlmock.NewRows([]string{"name", "unique", "type", "cols"}).AddRow("IX_users_name", false, "NONCLUSTERED", "[name]"),
	)

	ddl, err := a.GetTableDDL(context.Background(), cfg, "", "users")
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE [dbo].[users] (
  [id] int IDENTITY(1,1) NOT NULL,
  [name] nvarchar(100) DEFAULT (N'anon'),
  CONSTRAINT [PK_users] PRIMARY KEY ([id])
);

CREATE NONCLUSTERED INDEX [IX_users_name] ON [dbo].[users] ([name]);`, ddl)
}

func TestExplain(t *testing.T) {
	a, mock := newMocked(t)
	mock.ExpectExec(`SET SHOWPLAN_XML ON`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM users`).WillReturnRows(
		sqlmock.NewRows([]string{"Microsoft SQL Server 2005 XML Showplan"}).AddRow("<ShowPlanXML/>"),
	)
	mock.ExpectExec(`SET SHOWPLAN_XML OFF`).WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := a.Explain(context.Background(), cfg, "SELECT * FROM users", false)
	require.NoError(t, err)
	assert.Equal(t, "<ShowPlanXML/>", res.Plan)
	assert.Equal(t, "xml", res.Format)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSchemas(t *testing.T) {
	a, mock := newMocked(t)
	mock.ExpectQuery(`FROM sys.schemas`).WillReturnRows(
		sqlmock.NewRows([]string{"schema", "name", "type"}).
			AddRow("dbo", "users", "U ").
			AddRow("dbo", "v_users", "V ").
			AddRow("sales", "", ""),
	)

	schemas, err := a.GetSchemas(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, []string{"users"}, schemas[0].Tables)
	assert.Equal(t, []string{"v_users"}, schemas[0].Views)
	assert.Equal(t, "sales", schemas[1].Name)
}

func TestGetEditContext(t *testing.T) {
	a, mock := newMocked(t)
	mock.ExpectQuery(`FROM information_schema.columns`).WithArgs("dbo", "orders").WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("id", "int", "NO", 1).
			AddRow("user_id", "int", "YES", 2),
	)
	mock.ExpectQuery(`PRIMARY KEY`).WithArgs("dbo", "orders").WillReturnRows(
		sqlmock.NewRows([]string{"column_name"}).AddRow("id"),
	)
	mock.ExpectQuery(`FROM sys.foreign_key_columns`).WithArgs("[dbo].[orders]").WillReturnRows(
		sqlmock.NewRows([]string{"c", "s", "t", "r"}).AddRow("user_id", "dbo", "users", "id"),
	)

	ec, err := a.GetEditContext(context.Background(), cfg, "", "orders")
	require.NoError(t, err)
	assert.Equal(t, "dbo", ec.Schema)
	assert.Equal(t, []string{"id"}, ec.PrimaryKeyColumns)
	require.NotNil(t, ec.Columns[1].ForeignKey)
	assert.Equal(t, "users", ec.Columns[1].ForeignKey.Table)
	assert.NoError(t, mock.ExpectationsWereMet())
}
