package ddl

import (
	"regexp"
	"strings"
)

// compilerBoundary matches the boundary CreateTable places between statements.
var compilerBoundary = regexp.MustCompile(`;\s*\n\n`)

// SplitStatements recovers the individual statements of CreateResult.SQL.
// It understands only the layout produced by this package and must not be
// used on user-authored scripts; see pkg/script for those.
func SplitStatements(sql string) []string {
	parts := compilerBoundary.Split(sql, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimSpace(strings.TrimSuffix(p, ";"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
