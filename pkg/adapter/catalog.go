package adapter

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
	"github.com/leapstack-labs/dbdesk/pkg/dialect"
)

// SchemaSet accumulates introspected relations per schema.
type SchemaSet struct {
	byName map[string]*core.SchemaInfo
}

// NewSchemaSet creates an empty SchemaSet.
func NewSchemaSet() *SchemaSet {
	return &SchemaSet{byName: make(map[string]*core.SchemaInfo)}
}

// AddSchema records a schema even when it holds no relations.
func (s *SchemaSet) AddSchema(schema string) *core.SchemaInfo {
	info, ok := s.byName[schema]
	if !ok {
		info = &core.SchemaInfo{Name: schema, Tables: []string{}, Views: []string{}}
		s.byName[schema] = info
	}
	return info
}

// Add records a table or view. An empty name only records the schema.
func (s *SchemaSet) Add(schema, name string, isView bool) {
	info := s.AddSchema(schema)
	switch {
	case name == "":
	case isView:
		info.Views = append(info.Views, name)
	default:
		info.Tables = append(info.Tables, name)
	}
}

// List returns the schemas sorted by name with sorted relations.
func (s *SchemaSet) List() []core.SchemaInfo {
	out := make([]core.SchemaInfo, 0, len(s.byName))
	for _, info := range s.byName {
		sort.Strings(info.Tables)
		sort.Strings(info.Views)
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DDLColumn is one column of a reverse-engineered table.
type DDLColumn struct {
	Name     string
	Type     string
	NotNull  bool
	Default  string // expression as stored by the server
	Identity string // identity clause, if any
}

// DDLConstraint is a named table constraint and its definition.
type DDLConstraint struct {
	Name       string
	Definition string
}

// RenderTableDDL renders a CREATE TABLE statement followed by extra
// statements such as index definitions, separated by blank lines.
func RenderTableDDL(rules *dialect.Rules, schema, table string, cols []DDLColumn, constraints []DDLConstraint, extra []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(rules.QualifiedName(schema, table))
	b.WriteString(" (\n")

	lines := make([]string, 0, len(cols)+len(constraints))
	for _, c := range cols {
		line := "  " + rules.QuoteIdentifier(c.Name) + " " + c.Type
		if c.Identity != "" {
			line += " " + c.Identity
		}
		if c.NotNull {
			line += " NOT NULL"
		}
		if c.Default != "" {
			line += " DEFAULT " + c.Default
		}
		lines = append(lines, line)
	}
	for _, c := range constraints {
		lines = append(lines, "  CONSTRAINT "+rules.QuoteIdentifier(c.Name)+" "+c.Definition)
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);")

	for _, stmt := range extra {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSuffix(strings.TrimSpace(stmt), ";"))
		b.WriteString(";")
	}
	return b.String()
}
