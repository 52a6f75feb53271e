package core

import "time"

// SSLConfig holds TLS settings for a connection.
type SSLConfig struct {
	Mode     string `koanf:"mode" json:"mode,omitempty"` // disable, require, verify-ca, verify-full
	RootCert string `koanf:"root_cert" json:"rootCert,omitempty"`
}

// ConnectionConfig describes where to run work.
type ConnectionConfig struct {
	DBType   Dialect           `koanf:"type" json:"dbType"`
	Host     string            `koanf:"host" json:"host,omitempty"`
	Port     int               `koanf:"port" json:"port,omitempty"`
	Database string            `koanf:"database" json:"database,omitempty"`
	User     string            `koanf:"user" json:"user,omitempty"`
	Password string            `koanf:"password" json:"-"`
	Path     string            `koanf:"path" json:"path,omitempty"` // SQLite database file
	Schema   string            `koanf:"schema" json:"schema,omitempty"`
	SSL      *SSLConfig        `koanf:"ssl" json:"ssl,omitempty"`
	Options  map[string]string `koanf:"options" json:"options,omitempty"`
}

// SchemaInfo is one schema (database for MySQL) visible to the connection.
type SchemaInfo struct {
	Name   string   `json:"name"`
	Tables []string `json:"tables"`
	Views  []string `json:"views"`
}

// TypeInfo is a user-visible data type.
type TypeInfo struct {
	Schema string   `json:"schema,omitempty"`
	Name   string   `json:"name"`
	Kind   string   `json:"kind"` // base, enum, domain, composite, alias
	Values []string `json:"values,omitempty"`
}

// SequenceInfo describes one sequence.
type SequenceInfo struct {
	Schema     string `json:"schema"`
	Name       string `json:"name"`
	DataType   string `json:"dataType,omitempty"`
	StartValue int64  `json:"startValue"`
	Increment  int64  `json:"increment"`
	MinValue   int64  `json:"minValue"`
	MaxValue   int64  `json:"maxValue"`
}

// ExplainResult holds a query plan as returned by the backend.
type ExplainResult struct {
	Plan     string  `json:"plan"`
	Format   string  `json:"format"` // text or json
	Analyzed bool    `json:"analyzed"`
	Duration float64 `json:"durationMs"`
}

// ExecutionInfo describes one registered in-flight execution.
type ExecutionInfo struct {
	ID        string    `json:"id"`
	Dialect   Dialect   `json:"dialect"`
	StartedAt time.Time `json:"startedAt"`
}

// CancelResult reports the outcome of a cancel request.
type CancelResult struct {
	Cancelled bool   `json:"cancelled"`
	Error     string `json:"error,omitempty"`
}
