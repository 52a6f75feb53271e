package config

import (
	"os"
	"regexp"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func ExpandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// ExpandConnectionEnvVars expands environment variables in the credential
// and address fields of c.
func ExpandConnectionEnvVars(c *core.ConnectionConfig) {
	if c == nil {
		return
	}
	c.Password = ExpandEnvVars(c.Password)
	c.User = ExpandEnvVars(c.User)
	c.Host = ExpandEnvVars(c.Host)
	c.Database = ExpandEnvVars(c.Database)
	c.Path = ExpandEnvVars(c.Path)
}
