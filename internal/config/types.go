// Package config provides connection profile handling shared by the CLI and
// any other front end that drives the engine.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/adapter"
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "dbdesk.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "dbdesk.yml"

// Profiles maps profile names to connection configs.
type Profiles map[string]core.ConnectionConfig

// Names returns the profile names sorted.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the named profile. An empty name selects the only profile
// when exactly one is defined.
func (p Profiles) Resolve(name string) (core.ConnectionConfig, error) {
	if name == "" {
		switch len(p) {
		case 0:
			return core.ConnectionConfig{}, fmt.Errorf("no connections configured\nHint: add a connections section to %s", ConfigFileName)
		case 1:
			for _, c := range p {
				return c, nil
			}
		default:
			return core.ConnectionConfig{}, fmt.Errorf("multiple connections configured (%s); select one with --connection or default_connection",
				strings.Join(p.Names(), ", "))
		}
	}
	c, ok := p[name]
	if !ok {
		return core.ConnectionConfig{}, &UnknownConnectionError{Name: name, Available: p.Names()}
	}
	return c, nil
}

// UnknownConnectionError is returned when a profile name is not configured.
type UnknownConnectionError struct {
	Name      string
	Available []string
}

func (e *UnknownConnectionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown connection %q (no connections configured)", e.Name)
	}
	return fmt.Sprintf("unknown connection %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// ValidateConnection checks a resolved connection config.
// It uses the adapter registry to determine which backends are available.
func ValidateConnection(c core.ConnectionConfig) error {
	if c.DBType == "" {
		return fmt.Errorf("connection type is required")
	}
	d, err := core.ParseDialect(string(c.DBType))
	if err != nil {
		return err
	}
	if !adapter.IsRegistered(d) {
		return &adapter.UnknownAdapterError{Dialect: d, Available: adapter.ListAdapters()}
	}

	switch d {
	case core.SQLite:
		if c.Path == "" && c.Database == "" {
			return fmt.Errorf("sqlite connection requires a path")
		}
	case core.PostgreSQL, core.MySQL, core.MSSQL:
		if c.Host == "" {
			return fmt.Errorf("%s connection requires a host", d)
		}
	default:
		core.UnreachableDialect(d)
	}

	if c.SSL != nil {
		switch c.SSL.Mode {
		case "", "disable", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid ssl mode %q", c.SSL.Mode)
		}
	}
	return nil
}
