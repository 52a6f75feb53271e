// Package ddl validates table definitions and compiles CREATE, ALTER and
// DROP statements for each supported dialect.
package ddl

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// ValidationResult reports every problem found in a definition.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

type validator struct {
	errs []string
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *validator) result() ValidationResult {
	return ValidationResult{Valid: len(v.errs) == 0, Errors: v.errs}
}

// ValidateTableDefinition rejects malformed definitions before compilation.
func ValidateTableDefinition(def *core.TableDefinition) ValidationResult {
	v := &validator{}
	if def == nil {
		v.addf("table definition is required")
		return v.result()
	}
	if strings.TrimSpace(def.Name) == "" {
		v.addf("table name is required")
	}
	if strings.TrimSpace(def.Schema) == "" {
		v.addf("schema is required")
	}
	if len(def.Columns) == 0 {
		v.addf("table must have at least one column")
	}

	columns := make(map[string]struct{}, len(def.Columns))
	var pkFlagged []string
	for i, col := range def.Columns {
		if strings.TrimSpace(col.Name) == "" {
			v.addf("column %d: name is required", i+1)
			continue
		}
		key := strings.ToLower(col.Name)
		if _, dup := columns[key]; dup {
			v.addf("duplicate column name %q", col.Name)
		}
		columns[key] = struct{}{}
		validateColumn(v, col)
		if col.IsPrimaryKey {
			pkFlagged = append(pkFlagged, col.Name)
		}
	}
	hasColumn := func(name string) bool {
		_, ok := columns[strings.ToLower(name)]
		return ok
	}

	constraintNames := make(map[string]struct{})
	pkConstraints := 0
	for i, c := range def.Constraints {
		label := constraintLabel(i, c)
		if c.Name != "" {
			key := strings.ToLower(c.Name)
			if _, dup := constraintNames[key]; dup {
				v.addf("duplicate constraint name %q", c.Name)
			}
			constraintNames[key] = struct{}{}
		}
		validateConstraint(v, label, c, hasColumn)
		if c.Type == core.ConstraintPrimaryKey {
			pkConstraints++
			if len(pkFlagged) > 0 && !sameColumns(pkFlagged, c.Columns) {
				v.addf("%s: columns %v do not match columns marked as primary key %v", label, c.Columns, pkFlagged)
			}
		}
	}
	if pkConstraints > 1 {
		v.addf("table can have only one primary key constraint")
	}

	indexNames := make(map[string]struct{})
	for i, idx := range def.Indexes {
		if idx.Name != "" {
			key := strings.ToLower(idx.Name)
			if _, dup := indexNames[key]; dup {
				v.addf("duplicate index name %q", idx.Name)
			}
			indexNames[key] = struct{}{}
		}
		validateIndex(v, indexLabel(i, idx), idx, hasColumn)
	}

	if p := def.Partition; p != nil {
		switch p.Strategy {
		case core.PartitionRange, core.PartitionList, core.PartitionHash:
		default:
			v.addf("partition: unknown strategy %q", p.Strategy)
		}
		if len(p.Columns) == 0 {
			v.addf("partition: at least one column is required")
		}
		for _, c := range p.Columns {
			if !hasColumn(c) {
				v.addf("partition: column %q does not exist", c)
			}
		}
	}
	return v.result()
}

func validateColumn(v *validator, col core.ColumnDefinition) {
	if strings.TrimSpace(col.DataType) == "" {
		v.addf("column %q: data type is required", col.Name)
	}
	switch col.DefaultType {
	case core.DefaultNone, core.DefaultIdentity:
	case core.DefaultValue, core.DefaultExpression:
		if col.DefaultValue == nil {
			v.addf("column %q: default of type %s requires a value", col.Name, col.DefaultType)
		}
	case core.DefaultSequence:
		if col.SequenceName == "" {
			v.addf("column %q: sequence default requires a sequence name", col.Name)
		}
	default:
		v.addf("column %q: unknown default type %q", col.Name, col.DefaultType)
	}
	if col.Scale != nil && col.Precision == nil {
		v.addf("column %q: scale requires precision", col.Name)
	}
}

func validateConstraint(v *validator, label string, c core.ConstraintDefinition, hasColumn func(string) bool) {
	switch c.Type {
	case core.ConstraintPrimaryKey, core.ConstraintUnique:
		if len(c.Columns) == 0 {
			v.addf("%s: at least one column is required", label)
		}
	case core.ConstraintForeignKey:
		if c.ReferencedTable == "" {
			v.addf("%s: referenced table is required", label)
		}
		if len(c.Columns) == 0 {
			v.addf("%s: at least one column is required", label)
		}
		if len(c.Columns) != len(c.ReferencedColumns) {
			v.addf("%s: %d columns reference %d columns", label, len(c.Columns), len(c.ReferencedColumns))
		}
	case core.ConstraintCheck:
		if strings.TrimSpace(c.Expression) == "" {
			v.addf("%s: check expression is required", label)
		}
	case core.ConstraintExclude:
		if len(c.Elements) == 0 {
			v.addf("%s: at least one exclusion element is required", label)
		}
		for _, e := range c.Elements {
			if e.Element == "" || e.Operator == "" {
				v.addf("%s: exclusion elements need an element and an operator", label)
				break
			}
		}
	default:
		v.addf("%s: unknown constraint type %q", label, c.Type)
		return
	}
	if hasColumn == nil {
		return
	}
	for _, col := range c.Columns {
		if !hasColumn(col) {
			v.addf("%s: column %q does not exist", label, col)
		}
	}
}

func validateIndex(v *validator, label string, idx core.IndexDefinition, hasColumn func(string) bool) {
	if len(idx.Columns) == 0 {
		v.addf("%s: at least one column is required", label)
	}
	for _, c := range idx.Columns {
		if c.Name == "" {
			v.addf("%s: column name is required", label)
			continue
		}
		if hasColumn != nil && !hasColumn(c.Name) {
			v.addf("%s: column %q does not exist", label, c.Name)
		}
		switch c.Order {
		case "", core.SortAsc, core.SortDesc:
		default:
			v.addf("%s: invalid sort order %q", label, c.Order)
		}
		switch c.NullsPosition {
		case "", core.NullsFirst, core.NullsLast:
		default:
			v.addf("%s: invalid nulls position %q", label, c.NullsPosition)
		}
	}
	for _, c := range idx.Include {
		if hasColumn != nil && !hasColumn(c) {
			v.addf("%s: included column %q does not exist", label, c)
		}
	}
}

// ValidateAlterTableBatch rejects malformed alter batches.
// Column references are checked against columns dropped earlier in the batch.
func ValidateAlterTableBatch(batch *core.AlterTableBatch) ValidationResult {
	v := &validator{}
	if batch == nil {
		v.addf("alter batch is required")
		return v.result()
	}
	if strings.TrimSpace(batch.Table) == "" {
		v.addf("table name is required")
	}
	if strings.TrimSpace(batch.Schema) == "" {
		v.addf("schema is required")
	}

	dropped := make(map[string]struct{})
	added := make(map[string]bool) // name -> flagged primary key
	for i, op := range batch.ColumnOperations {
		label := fmt.Sprintf("column operation %d (%s)", i+1, op.Type)
		switch op.Type {
		case core.AlterColumnAdd:
			if op.Column == nil || strings.TrimSpace(op.Column.Name) == "" {
				v.addf("%s: column definition with a name is required", label)
				continue
			}
			validateColumn(v, *op.Column)
			key := strings.ToLower(op.Column.Name)
			delete(dropped, key)
			added[key] = op.Column.IsPrimaryKey
		case core.AlterColumnDrop:
			if op.ColumnName == "" {
				v.addf("%s: column name is required", label)
				continue
			}
			key := strings.ToLower(op.ColumnName)
			if pk, ok := added[key]; ok && pk {
				v.addf("%s: column %q is marked primary key and dropped in the same batch", label, op.ColumnName)
			}
			dropped[key] = struct{}{}
		case core.AlterColumnRename:
			if op.ColumnName == "" || op.NewName == "" {
				v.addf("%s: column name and new name are required", label)
				continue
			}
			delete(dropped, strings.ToLower(op.NewName))
			dropped[strings.ToLower(op.ColumnName)] = struct{}{}
		case core.AlterColumnSetType:
			if op.ColumnName == "" || op.DataType == "" {
				v.addf("%s: column name and data type are required", label)
			}
		case core.AlterColumnSetNullable:
			if op.ColumnName == "" {
				v.addf("%s: column name is required", label)
			}
			if op.IsNullable == nil {
				v.addf("%s: isNullable is required", label)
			}
		case core.AlterColumnSetComment:
			if op.ColumnName == "" {
				v.addf("%s: column name is required", label)
			}
		case core.AlterColumnSetDefault:
			if op.ColumnName == "" {
				v.addf("%s: column name is required", label)
			}
			if op.DefaultType == core.DefaultSequence && op.SequenceName == "" {
				v.addf("%s: sequence default requires a sequence name", label)
			}
		default:
			v.addf("%s: unknown column operation", label)
			continue
		}
		if op.Type != core.AlterColumnDrop && op.Type != core.AlterColumnRename && op.Type != core.AlterColumnAdd {
			if _, gone := dropped[strings.ToLower(op.ColumnName)]; gone {
				v.addf("%s: column %q was dropped earlier in the batch", label, op.ColumnName)
			}
		}
	}
	stillPresent := func(name string) bool {
		_, gone := dropped[strings.ToLower(name)]
		return !gone
	}

	for i, op := range batch.ConstraintOperations {
		label := fmt.Sprintf("constraint operation %d (%s)", i+1, op.Type)
		switch op.Type {
		case core.AlterConstraintAdd:
			if op.Constraint == nil {
				v.addf("%s: constraint definition is required", label)
				continue
			}
			validateConstraint(v, label, *op.Constraint, stillPresent)
		case core.AlterConstraintDrop:
			if op.Name == "" {
				v.addf("%s: constraint name is required", label)
			}
		case core.AlterConstraintRename:
			if op.Name == "" || op.NewName == "" {
				v.addf("%s: constraint name and new name are required", label)
			}
		default:
			v.addf("%s: unknown constraint operation", label)
		}
	}

	for i, op := range batch.IndexOperations {
		label := fmt.Sprintf("index operation %d (%s)", i+1, op.Type)
		switch op.Type {
		case core.AlterIndexCreate:
			if op.Index == nil {
				v.addf("%s: index definition is required", label)
				continue
			}
			validateIndex(v, label, *op.Index, stillPresent)
		case core.AlterIndexDrop, core.AlterIndexReindex:
			if op.Name == "" {
				v.addf("%s: index name is required", label)
			}
		case core.AlterIndexRename:
			if op.Name == "" || op.NewName == "" {
				v.addf("%s: index name and new name are required", label)
			}
		default:
			v.addf("%s: unknown index operation", label)
		}
	}
	return v.result()
}

func constraintLabel(i int, c core.ConstraintDefinition) string {
	if c.Name != "" {
		return fmt.Sprintf("constraint %q", c.Name)
	}
	return fmt.Sprintf("constraint %d (%s)", i+1, c.Type)
}

func indexLabel(i int, idx core.IndexDefinition) string {
	if idx.Name != "" {
		return fmt.Sprintf("index %q", idx.Name)
	}
	return fmt.Sprintf("index %d", i+1)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, c := range a {
		set[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range b {
		if _, ok := set[strings.ToLower(c)]; !ok {
			return false
		}
	}
	return true
}
