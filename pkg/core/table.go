package core

// DefaultType describes how a column default is expressed.
type DefaultType string

// Column default kinds.
const (
	DefaultNone       DefaultType = ""
	DefaultValue      DefaultType = "value"      // quoted literal
	DefaultExpression DefaultType = "expression" // raw SQL expression, e.g. now()
	DefaultSequence   DefaultType = "sequence"   // nextval of SequenceName
	DefaultIdentity   DefaultType = "identity"   // auto-increment / identity column
)

// ColumnDefinition describes one column of a table to create or add.
type ColumnDefinition struct {
	ID              string      `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string      `json:"name" yaml:"name"`
	DataType        string      `json:"dataType" yaml:"dataType"`
	Length          *int        `json:"length,omitempty" yaml:"length,omitempty"`
	Precision       *int        `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale           *int        `json:"scale,omitempty" yaml:"scale,omitempty"`
	IsNullable      bool        `json:"isNullable" yaml:"isNullable"`
	IsPrimaryKey    bool        `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsUnique        bool        `json:"isUnique" yaml:"isUnique"`
	DefaultValue    *string     `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	DefaultType     DefaultType `json:"defaultType,omitempty" yaml:"defaultType,omitempty"`
	SequenceName    string      `json:"sequenceName,omitempty" yaml:"sequenceName,omitempty"`
	CheckConstraint string      `json:"checkConstraint,omitempty" yaml:"checkConstraint,omitempty"`
	Comment         string      `json:"comment,omitempty" yaml:"comment,omitempty"`
	Collation       string      `json:"collation,omitempty" yaml:"collation,omitempty"`
	IsArray         bool        `json:"isArray,omitempty" yaml:"isArray,omitempty"`
}

// ConstraintType discriminates ConstraintDefinition.
type ConstraintType string

// Constraint types.
const (
	ConstraintPrimaryKey ConstraintType = "primary_key"
	ConstraintForeignKey ConstraintType = "foreign_key"
	ConstraintUnique     ConstraintType = "unique"
	ConstraintCheck      ConstraintType = "check"
	ConstraintExclude    ConstraintType = "exclude"
)

// ReferentialAction is an ON DELETE / ON UPDATE action.
type ReferentialAction string

// Referential actions.
const (
	ActionNoAction   ReferentialAction = "NO ACTION"
	ActionRestrict   ReferentialAction = "RESTRICT"
	ActionCascade    ReferentialAction = "CASCADE"
	ActionSetNull    ReferentialAction = "SET NULL"
	ActionSetDefault ReferentialAction = "SET DEFAULT"
)

// ExcludeElement pairs a column or expression with an exclusion operator.
type ExcludeElement struct {
	Element  string `json:"element" yaml:"element"`
	Operator string `json:"operator" yaml:"operator"`
}

// ConstraintDefinition is a table-level constraint tagged by Type.
// Only the fields relevant to Type are read.
type ConstraintDefinition struct {
	ID      string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty"`
	Type    ConstraintType `json:"type" yaml:"type"`
	Columns []string       `json:"columns,omitempty" yaml:"columns,omitempty"`

	// foreign_key
	ReferencedSchema  string            `json:"referencedSchema,omitempty" yaml:"referencedSchema,omitempty"`
	ReferencedTable   string            `json:"referencedTable,omitempty" yaml:"referencedTable,omitempty"`
	ReferencedColumns []string          `json:"referencedColumns,omitempty" yaml:"referencedColumns,omitempty"`
	OnDelete          ReferentialAction `json:"onDelete,omitempty" yaml:"onDelete,omitempty"`
	OnUpdate          ReferentialAction `json:"onUpdate,omitempty" yaml:"onUpdate,omitempty"`
	Deferrable        bool              `json:"deferrable,omitempty" yaml:"deferrable,omitempty"`

	// check
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`

	// exclude
	Method   string           `json:"method,omitempty" yaml:"method,omitempty"`
	Elements []ExcludeElement `json:"elements,omitempty" yaml:"elements,omitempty"`
	Where    string           `json:"where,omitempty" yaml:"where,omitempty"`
}

// SortOrder is an index column direction.
type SortOrder string

// Index column directions.
const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// NullsPosition places NULLs within an index column.
type NullsPosition string

// Index NULL positions.
const (
	NullsFirst NullsPosition = "FIRST"
	NullsLast  NullsPosition = "LAST"
)

// IndexColumn is one key column of an index.
type IndexColumn struct {
	Name          string        `json:"name" yaml:"name"`
	Order         SortOrder     `json:"order,omitempty" yaml:"order,omitempty"`
	NullsPosition NullsPosition `json:"nullsPosition,omitempty" yaml:"nullsPosition,omitempty"`
}

// IndexDefinition describes one index.
type IndexDefinition struct {
	ID         string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string        `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []IndexColumn `json:"columns" yaml:"columns"`
	IsUnique   bool          `json:"isUnique" yaml:"isUnique"`
	Method     string        `json:"method,omitempty" yaml:"method,omitempty"`
	Where      string        `json:"where,omitempty" yaml:"where,omitempty"`
	Include    []string      `json:"include,omitempty" yaml:"include,omitempty"`
	Concurrent bool          `json:"concurrent,omitempty" yaml:"concurrent,omitempty"`
}

// PartitionStrategy is a declarative partitioning method.
type PartitionStrategy string

// Partition strategies.
const (
	PartitionRange PartitionStrategy = "range"
	PartitionList  PartitionStrategy = "list"
	PartitionHash  PartitionStrategy = "hash"
)

// PartitionDefinition is the single partitioning strategy of a table.
type PartitionDefinition struct {
	Strategy PartitionStrategy `json:"strategy" yaml:"strategy"`
	Columns  []string          `json:"columns" yaml:"columns"`
}

// TableDefinition describes a table to create.
type TableDefinition struct {
	Schema      string                 `json:"schema" yaml:"schema"`
	Name        string                 `json:"name" yaml:"name"`
	Columns     []ColumnDefinition     `json:"columns" yaml:"columns"`
	Constraints []ConstraintDefinition `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Indexes     []IndexDefinition      `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	Partition   *PartitionDefinition   `json:"partition,omitempty" yaml:"partition,omitempty"`
	Inherits    string                 `json:"inherits,omitempty" yaml:"inherits,omitempty"`
	Tablespace  string                 `json:"tablespace,omitempty" yaml:"tablespace,omitempty"`
	Comment     string                 `json:"comment,omitempty" yaml:"comment,omitempty"`
	Unlogged    bool                   `json:"unlogged,omitempty" yaml:"unlogged,omitempty"`
}

// Column returns the definition of the named column.
func (t *TableDefinition) Column(name string) (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// AlterColumnType discriminates AlterColumnOperation.
type AlterColumnType string

// Column alteration kinds.
const (
	AlterColumnAdd         AlterColumnType = "add"
	AlterColumnDrop        AlterColumnType = "drop"
	AlterColumnRename      AlterColumnType = "rename"
	AlterColumnSetType     AlterColumnType = "set_type"
	AlterColumnSetNullable AlterColumnType = "set_nullable"
	AlterColumnSetDefault  AlterColumnType = "set_default"
	AlterColumnSetComment  AlterColumnType = "set_comment"
)

// AlterColumnOperation changes one column. Only the fields relevant to Type are read.
// DataType and IsNullable are required by dialects that restate the full
// column on modification (MySQL, SQL Server).
type AlterColumnOperation struct {
	Type         AlterColumnType   `json:"type" yaml:"type"`
	Column       *ColumnDefinition `json:"column,omitempty" yaml:"column,omitempty"` // add
	ColumnName   string            `json:"columnName,omitempty" yaml:"columnName,omitempty"`
	NewName      string            `json:"newName,omitempty" yaml:"newName,omitempty"`
	DataType     string            `json:"dataType,omitempty" yaml:"dataType,omitempty"`
	Using        string            `json:"using,omitempty" yaml:"using,omitempty"`
	IsNullable   *bool             `json:"isNullable,omitempty" yaml:"isNullable,omitempty"` // nil: not stated
	DefaultValue *string           `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	DefaultType  DefaultType       `json:"defaultType,omitempty" yaml:"defaultType,omitempty"`
	SequenceName string            `json:"sequenceName,omitempty" yaml:"sequenceName,omitempty"`
	Comment      string            `json:"comment,omitempty" yaml:"comment,omitempty"`
	Cascade      bool              `json:"cascade,omitempty" yaml:"cascade,omitempty"`
}

// Target returns the name of the column the operation acts on.
func (o AlterColumnOperation) Target() string {
	if o.Type == AlterColumnAdd && o.Column != nil {
		return o.Column.Name
	}
	return o.ColumnName
}

// AlterConstraintType discriminates AlterConstraintOperation.
type AlterConstraintType string

// Constraint alteration kinds.
const (
	AlterConstraintAdd    AlterConstraintType = "add"
	AlterConstraintDrop   AlterConstraintType = "drop"
	AlterConstraintRename AlterConstraintType = "rename"
)

// AlterConstraintOperation changes one table constraint.
type AlterConstraintOperation struct {
	Type       AlterConstraintType   `json:"type" yaml:"type"`
	Constraint *ConstraintDefinition `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Name       string                `json:"name,omitempty" yaml:"name,omitempty"`
	NewName    string                `json:"newName,omitempty" yaml:"newName,omitempty"`
	Cascade    bool                  `json:"cascade,omitempty" yaml:"cascade,omitempty"`
}

// AlterIndexType discriminates AlterIndexOperation.
type AlterIndexType string

// Index alteration kinds.
const (
	AlterIndexCreate  AlterIndexType = "create"
	AlterIndexDrop    AlterIndexType = "drop"
	AlterIndexRename  AlterIndexType = "rename"
	AlterIndexReindex AlterIndexType = "reindex"
)

// AlterIndexOperation changes one index of the table.
type AlterIndexOperation struct {
	Type       AlterIndexType   `json:"type" yaml:"type"`
	Index      *IndexDefinition `json:"index,omitempty" yaml:"index,omitempty"`
	Name       string           `json:"name,omitempty" yaml:"name,omitempty"`
	NewName    string           `json:"newName,omitempty" yaml:"newName,omitempty"`
	Concurrent bool             `json:"concurrent,omitempty" yaml:"concurrent,omitempty"`
	Cascade    bool             `json:"cascade,omitempty" yaml:"cascade,omitempty"`
}

// AlterTableBatch is an ordered set of structural changes to one table.
// Lists are emitted columns, then constraints, then indexes, then table-level changes.
type AlterTableBatch struct {
	Schema               string                     `json:"schema" yaml:"schema"`
	Table                string                     `json:"table" yaml:"table"`
	ColumnOperations     []AlterColumnOperation     `json:"columnOperations,omitempty" yaml:"columnOperations,omitempty"`
	ConstraintOperations []AlterConstraintOperation `json:"constraintOperations,omitempty" yaml:"constraintOperations,omitempty"`
	IndexOperations      []AlterIndexOperation      `json:"indexOperations,omitempty" yaml:"indexOperations,omitempty"`
	RenameTable          string                     `json:"renameTable,omitempty" yaml:"renameTable,omitempty"`
	SetSchema            string                     `json:"setSchema,omitempty" yaml:"setSchema,omitempty"`
	Comment              *string                    `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// DropOptions controls DROP TABLE rendering.
type DropOptions struct {
	Cascade  bool `json:"cascade,omitempty" yaml:"cascade,omitempty"`
	IfExists bool `json:"ifExists,omitempty" yaml:"ifExists,omitempty"`
}

// DDLResult is the outcome of executing (or refusing to execute) DDL.
type DDLResult struct {
	Success     bool     `json:"success"`
	ExecutedSQL []string `json:"executedSql"`
	Errors      []string `json:"errors,omitempty"`
}
