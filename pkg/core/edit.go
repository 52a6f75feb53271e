package core

// ForeignKeyRef points a column at the column it references.
type ForeignKeyRef struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// ColumnInfo is an immutable snapshot of one introspected column.
type ColumnInfo struct {
	Name            string         `json:"name" yaml:"name"`
	DataType        string         `json:"dataType" yaml:"dataType"`
	IsNullable      bool           `json:"isNullable" yaml:"isNullable"`
	IsPrimaryKey    bool           `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	OrdinalPosition int            `json:"ordinalPosition" yaml:"ordinalPosition"`
	ForeignKey      *ForeignKeyRef `json:"foreignKey,omitempty" yaml:"foreignKey,omitempty"`
}

// EditContext identifies the target table and carries the column metadata
// needed to order and type-format values. Consumed read-only by compilers.
type EditContext struct {
	Schema            string       `json:"schema" yaml:"schema"`
	Table             string       `json:"table" yaml:"table"`
	PrimaryKeyColumns []string     `json:"primaryKeyColumns" yaml:"primaryKeyColumns"`
	Columns           []ColumnInfo `json:"columns" yaml:"columns"`
}

// Column returns the metadata for the named column.
func (c *EditContext) Column(name string) (ColumnInfo, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnInfo{}, false
}

// PrimaryKeyValue identifies one primary key component of a row.
type PrimaryKeyValue struct {
	Column   string `json:"column" yaml:"column"`
	Value    any    `json:"value" yaml:"value"`
	DataType string `json:"dataType,omitempty" yaml:"dataType,omitempty"`
}

// CellChange is a single column modification within a row update.
type CellChange struct {
	Column   string `json:"column" yaml:"column"`
	OldValue any    `json:"oldValue" yaml:"oldValue"`
	NewValue any    `json:"newValue" yaml:"newValue"`
	DataType string `json:"dataType,omitempty" yaml:"dataType,omitempty"`
}

// OperationKind discriminates EditOperation variants.
type OperationKind string

// Edit operation kinds.
const (
	OpUpdate OperationKind = "update"
	OpInsert OperationKind = "insert"
	OpDelete OperationKind = "delete"
)

// EditOperation is one row-level mutation independent of any SQL dialect.
// The variants are RowUpdate, RowInsert and RowDelete; the interface is sealed.
type EditOperation interface {
	OperationID() string
	Kind() OperationKind
	isEditOperation()
}

// RowUpdate changes cells of the row identified by PrimaryKeys.
type RowUpdate struct {
	ID          string            `json:"id" yaml:"id"`
	PrimaryKeys []PrimaryKeyValue `json:"primaryKeys" yaml:"primaryKeys"`
	Changes     []CellChange      `json:"changes" yaml:"changes"`
	OriginalRow map[string]any    `json:"originalRow,omitempty" yaml:"originalRow,omitempty"`
}

// RowInsert adds a new row. Columns optionally fixes the column order.
type RowInsert struct {
	ID      string         `json:"id" yaml:"id"`
	Values  map[string]any `json:"values" yaml:"values"`
	Columns []string       `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// RowDelete removes the row identified by PrimaryKeys.
type RowDelete struct {
	ID          string            `json:"id" yaml:"id"`
	PrimaryKeys []PrimaryKeyValue `json:"primaryKeys" yaml:"primaryKeys"`
	OriginalRow map[string]any    `json:"originalRow,omitempty" yaml:"originalRow,omitempty"`
}

func (o *RowUpdate) OperationID() string { return o.ID }
func (o *RowInsert) OperationID() string { return o.ID }
func (o *RowDelete) OperationID() string { return o.ID }

func (o *RowUpdate) Kind() OperationKind { return OpUpdate }
func (o *RowInsert) Kind() OperationKind { return OpInsert }
func (o *RowDelete) Kind() OperationKind { return OpDelete }

func (*RowUpdate) isEditOperation() {}
func (*RowInsert) isEditOperation() {}
func (*RowDelete) isEditOperation() {}

// EditBatch is a set of operations against one table, consumed once.
type EditBatch struct {
	Context    EditContext     `json:"context"`
	Operations []EditOperation `json:"operations"`
}

// ParameterizedQuery is SQL text plus positional bind values.
// SQL never contains interpolated user data; its placeholders line up 1:1 with Params.
type ParameterizedQuery struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// OperationError reports a failure attributed to one edit operation.
type OperationError struct {
	OperationID string    `json:"operationId"`
	Message     string    `json:"message"`
	Kind        ErrorKind `json:"kind,omitempty"`
}

// EditResult is the outcome of applying an EditBatch.
// Success reports the transport-level outcome; per-operation failures are in Errors.
type EditResult struct {
	Success      bool             `json:"success"`
	RowsAffected int64            `json:"rowsAffected"`
	ExecutedSQL  []string         `json:"executedSql"`
	Errors       []OperationError `json:"errors,omitempty"`
}
