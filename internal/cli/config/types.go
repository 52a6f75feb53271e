// Package config loads CLI configuration: connection profiles from
// dbdesk.yaml, DBDESK_ environment variables and command-line flags.
package config

import (
	sharedcfg "github.com/leapstack-labs/dbdesk/internal/config"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	Connections       sharedcfg.Profiles `koanf:"connections"`
	DefaultConnection string             `koanf:"default_connection"`
	HistoryPath       string             `koanf:"history_path"`
	HistoryLimit      int                `koanf:"history_limit"`
	NoHistory         bool               `koanf:"no_history"`
	Verbose           bool               `koanf:"verbose"`
	OutputFormat      string             `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// Connection is the resolved profile for this invocation.
	Connection core.ConnectionConfig `koanf:"-"`
	// ConnectionName is the name of the resolved profile ("" for ad-hoc flags).
	ConnectionName string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultHistoryPath  = sharedcfg.DefaultHistoryPath
	DefaultHistoryLimit = sharedcfg.DefaultHistoryLimit
	DefaultOutput       = sharedcfg.DefaultOutput
)
