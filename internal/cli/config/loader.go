package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/leapstack-labs/dbdesk/internal/config"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// connectionFlags are ad-hoc flags that override fields of the selected
// profile instead of mapping to top-level keys.
var connectionFlags = map[string]bool{
	"type": true, "host": true, "port": true, "database": true,
	"user": true, "password": true, "path": true, "schema": true,
}

// flagKeys maps flag names whose config key differs.
var flagKeys = map[string]string{
	"connection": "default_connection",
	"history":    "history_path",
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// inferProjectRoot returns the directory of an explicit config file, else the
// nearest ancestor of the working directory holding dbdesk.yaml, else the
// working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := sharedcfg.FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	projectRoot := inferProjectRoot(cfgFile)

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"history_path":  DefaultHistoryPath,
		"history_limit": DefaultHistoryLimit,
		"verbose":       false,
		"output":        DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = sharedcfg.FindConfigFile(projectRoot)
	}
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (DBDESK_ prefix)
	// Transform: DBDESK_HISTORY_PATH -> history_path,
	// DBDESK_CONNECTIONS__PROD__PASSWORD -> connections.prod.password
	if err := k.Load(env.Provider("DBDESK_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "DBDESK_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || connectionFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal, decoding dialect aliases ("postgres", "sqlserver")
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				dialectHook,
				mapstructure.StringToTimeDurationHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.HistoryPath = sharedcfg.ResolvePath(cfg.HistoryPath, projectRoot)
	for name, c := range cfg.Connections {
		sharedcfg.ExpandConnectionEnvVars(&c)
		c.Path = sharedcfg.ResolvePath(c.Path, projectRoot)
		cfg.Connections[name] = c
	}

	currentConfig = &cfg
	return &cfg, nil
}

var dialectType = reflect.TypeFor[core.Dialect]()

func dialectHook(from, to reflect.Type, data any) (any, error) {
	if to != dialectType || from.Kind() != reflect.String {
		return data, nil
	}
	s, _ := data.(string)
	if s == "" {
		return core.Dialect(""), nil
	}
	return core.ParseDialect(s)
}

// ResolveConnection selects the connection for this invocation: the profile
// named by default_connection (or --connection), with ad-hoc connection flags
// applied on top. With only ad-hoc flags and no profiles, the flags alone
// describe the connection.
func (c *Config) ResolveConnection(flags *pflag.FlagSet) (core.ConnectionConfig, error) {
	// --type without a selected profile describes the connection from flags alone.
	adhocOnly := flags != nil && flags.Changed("type") && c.DefaultConnection == ""

	var conn core.ConnectionConfig
	if !adhocOnly {
		var err error
		conn, err = c.Connections.Resolve(c.DefaultConnection)
		if err != nil {
			return core.ConnectionConfig{}, err
		}
		c.ConnectionName = c.DefaultConnection
		if c.ConnectionName == "" {
			c.ConnectionName = c.Connections.Names()[0]
		}
	}

	if flags != nil {
		if err := applyConnectionFlags(&conn, flags); err != nil {
			return core.ConnectionConfig{}, err
		}
	}

	sharedcfg.ExpandConnectionEnvVars(&conn)
	sharedcfg.ApplyConnectionDefaults(&conn)
	if err := sharedcfg.ValidateConnection(conn); err != nil {
		return core.ConnectionConfig{}, fmt.Errorf("invalid connection configuration: %w", err)
	}

	c.Connection = conn
	return conn, nil
}

func applyConnectionFlags(conn *core.ConnectionConfig, flags *pflag.FlagSet) error {
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	if flags.Changed("type") {
		v, _ := flags.GetString("type")
		d, err := core.ParseDialect(v)
		if err != nil {
			return err
		}
		conn.DBType = d
	}
	str("host", &conn.Host)
	str("database", &conn.Database)
	str("user", &conn.User)
	str("password", &conn.Password)
	str("schema", &conn.Schema)
	if flags.Changed("path") {
		v, _ := flags.GetString("path")
		conn.Path, _ = filepath.Abs(v)
	}
	if flags.Changed("port") {
		conn.Port, _ = flags.GetInt("port")
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
