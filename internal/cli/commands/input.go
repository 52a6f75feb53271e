package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// readInput reads a definition file; "-" reads from in.
func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is given on the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// decodeStrict decodes a YAML (or JSON) document, rejecting unknown fields.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty document")
		}
		return err
	}
	return nil
}

// editFile is the on-disk form of an edit batch. Columns and primary keys
// are optional; when absent they are read from the database.
type editFile struct {
	Schema            string            `yaml:"schema"`
	Table             string            `yaml:"table"`
	PrimaryKeyColumns []string          `yaml:"primaryKeyColumns"`
	Columns           []core.ColumnInfo `yaml:"columns"`
	Operations        []editOp          `yaml:"operations"`
}

// editOp decodes one operation using its type field as discriminator.
type editOp struct {
	op core.EditOperation
}

func (o *editOp) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type core.OperationKind `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	// Strip the discriminator so the payload decodes into the typed struct.
	payload := &yaml.Node{Kind: node.Kind, Tag: node.Tag, Line: node.Line, Column: node.Column}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "type" {
			continue
		}
		payload.Content = append(payload.Content, node.Content[i], node.Content[i+1])
	}

	switch head.Type {
	case core.OpUpdate:
		var u core.RowUpdate
		if err := payload.Decode(&u); err != nil {
			return err
		}
		o.op = &u
	case core.OpInsert:
		var ins core.RowInsert
		if err := payload.Decode(&ins); err != nil {
			return err
		}
		o.op = &ins
	case core.OpDelete:
		var d core.RowDelete
		if err := payload.Decode(&d); err != nil {
			return err
		}
		o.op = &d
	case "":
		return fmt.Errorf("line %d: operation type is required", node.Line)
	default:
		return fmt.Errorf("line %d: unknown operation type %q (expected update, insert or delete)", node.Line, head.Type)
	}
	return nil
}

// loadEditFile decodes an edit batch file. Operations without an id get
// "op<N>" by position.
func loadEditFile(data []byte, defaultSchema string) (*editFile, *core.EditBatch, error) {
	var f editFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, nil, fmt.Errorf("invalid edit file: %w", err)
	}
	if f.Table == "" {
		return nil, nil, fmt.Errorf("invalid edit file: table is required")
	}
	if f.Schema == "" {
		f.Schema = defaultSchema
	}

	batch := &core.EditBatch{
		Context: core.EditContext{
			Schema:            f.Schema,
			Table:             f.Table,
			PrimaryKeyColumns: f.PrimaryKeyColumns,
			Columns:           f.Columns,
		},
		Operations: make([]core.EditOperation, len(f.Operations)),
	}
	for i, o := range f.Operations {
		setDefaultID(o.op, fmt.Sprintf("op%d", i+1))
		batch.Operations[i] = o.op
	}
	return &f, batch, nil
}

func setDefaultID(op core.EditOperation, id string) {
	switch o := op.(type) {
	case *core.RowUpdate:
		if o.ID == "" {
			o.ID = id
		}
	case *core.RowInsert:
		if o.ID == "" {
			o.ID = id
		}
	case *core.RowDelete:
		if o.ID == "" {
			o.ID = id
		}
	}
}

// loadTableDefinition decodes a table definition file.
func loadTableDefinition(data []byte, defaultSchema string) (*core.TableDefinition, error) {
	var def core.TableDefinition
	if err := decodeStrict(data, &def); err != nil {
		return nil, fmt.Errorf("invalid table definition: %w", err)
	}
	if def.Schema == "" {
		def.Schema = defaultSchema
	}
	return &def, nil
}

// loadAlterBatch decodes an alter batch file.
func loadAlterBatch(data []byte, defaultSchema string) (*core.AlterTableBatch, error) {
	var batch core.AlterTableBatch
	if err := decodeStrict(data, &batch); err != nil {
		return nil, fmt.Errorf("invalid alter batch: %w", err)
	}
	if batch.Schema == "" {
		batch.Schema = defaultSchema
	}
	return &batch, nil
}
