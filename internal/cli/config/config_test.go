package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/dbdesk/pkg/core"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/dbdesk/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/dbdesk/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/dbdesk/pkg/adapters/sqlite"
)

const sampleConfig = `default_connection: local
history_limit: 20
connections:
  local:
    type: sqlite3
    path: data/dev.db
  warehouse:
    type: postgres
    host: db.internal
    database: analytics
    user: ${DBDESK_TEST_USER}
    password: ${DBDESK_TEST_PASSWORD}
    ssl:
      mode: require
    options:
      application_name: dbdesk
`

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("connection", "", "")
	fs.String("history", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.String("type", "", "")
	fs.String("host", "", "")
	fs.Int("port", 0, "")
	fs.String("database", "", "")
	fs.String("user", "", "")
	fs.String("password", "", "")
	fs.String("path", "", "")
	fs.String("schema", "", "")
	return fs
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbdesk.yaml"), []byte(sampleConfig), 0o600))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, filepath.Join(dir, DefaultHistoryPath), cfg.HistoryPath)
	assert.Empty(t, cfg.Connections)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_FileSearchedUpward(t *testing.T) {
	ResetConfig()
	dir := writeProject(t)
	nested := filepath.Join(dir, "sub", "dir")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)
	t.Setenv("DBDESK_TEST_USER", "analyst")
	t.Setenv("DBDESK_TEST_PASSWORD", "s3cret")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, 20, cfg.HistoryLimit)
	assert.Equal(t, "local", cfg.DefaultConnection)
	require.Len(t, cfg.Connections, 2)

	local := cfg.Connections["local"]
	assert.Equal(t, core.SQLite, local.DBType)
	assert.Equal(t, filepath.Join(dir, "data", "dev.db"), local.Path)

	wh := cfg.Connections["warehouse"]
	assert.Equal(t, core.PostgreSQL, wh.DBType)
	assert.Equal(t, "analyst", wh.User)
	assert.Equal(t, "s3cret", wh.Password)
	require.NotNil(t, wh.SSL)
	assert.Equal(t, "require", wh.SSL.Mode)
	assert.Equal(t, map[string]string{"application_name": "dbdesk"}, wh.Options)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	dir := writeProject(t)
	t.Chdir(dir)
	t.Setenv("DBDESK_DEFAULT_CONNECTION", "warehouse")
	t.Setenv("DBDESK_OUTPUT", "markdown")
	t.Setenv("DBDESK_CONNECTIONS__WAREHOUSE__PORT", "6543")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--output", "json", "--history", "h.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "warehouse", cfg.DefaultConnection, "env overrides file")
	assert.Equal(t, "json", cfg.OutputFormat, "flag overrides env")
	assert.Equal(t, filepath.Join(dir, "h.db"), cfg.HistoryPath)
	assert.Equal(t, 6543, cfg.Connections["warehouse"].Port)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: text\n"), 0o600))

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot)
}

func TestLoadConfig_BadDialect(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbdesk.yaml"), []byte("connections:\n  x:\n    type: oracle\n"), 0o600))
	t.Chdir(dir)

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database type")
}

func TestResolveConnection(t *testing.T) {
	ResetConfig()
	dir := writeProject(t)
	t.Chdir(dir)

	t.Run("default profile", func(t *testing.T) {
		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)

		conn, err := cfg.ResolveConnection(newFlags())
		require.NoError(t, err)
		assert.Equal(t, core.SQLite, conn.DBType)
		assert.Equal(t, "main", conn.Schema)
		assert.Equal(t, "local", cfg.ConnectionName)
	})

	t.Run("profile with flag override", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--connection", "warehouse", "--port", "15432", "--schema", "reporting"}))
		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)

		conn, err := cfg.ResolveConnection(flags)
		require.NoError(t, err)
		assert.Equal(t, core.PostgreSQL, conn.DBType)
		assert.Equal(t, 15432, conn.Port)
		assert.Equal(t, "reporting", conn.Schema)
		assert.Equal(t, "warehouse", cfg.ConnectionName)
	})

	t.Run("unknown profile", func(t *testing.T) {
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--connection", "nope"}))
		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)

		_, err = cfg.ResolveConnection(flags)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "available: local, warehouse")
	})
}

func TestResolveConnection_AdHocFlags(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--type", "mysql", "--host", "127.0.0.1", "--database", "shop"}))
	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	conn, err := cfg.ResolveConnection(flags)
	require.NoError(t, err)
	assert.Equal(t, core.MySQL, conn.DBType)
	assert.Equal(t, 3306, conn.Port)
	assert.Equal(t, "shop", conn.Database)
	assert.Empty(t, cfg.ConnectionName)
}

func TestResolveConnection_InvalidProfile(t *testing.T) {
	cfg := &Config{Connections: map[string]core.ConnectionConfig{"pg": {DBType: core.PostgreSQL}}}

	_, err := cfg.ResolveConnection(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a host")
}
