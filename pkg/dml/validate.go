// Package dml validates row edit operations and compiles them into
// parameterized statements for each supported dialect.
package dml

import (
	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Validate rejects malformed edit operations before compilation.
// It is pure and never touches the network.
func Validate(op core.EditOperation) error {
	switch o := op.(type) {
	case *core.RowUpdate:
		if len(o.PrimaryKeys) == 0 {
			return invalid(o.ID, "update requires at least one primary key value")
		}
		if len(o.Changes) == 0 {
			return invalid(o.ID, "update requires at least one change")
		}
		for _, c := range o.Changes {
			if c.Column == "" {
				return invalid(o.ID, "change is missing a column name")
			}
		}
		return validatePrimaryKeys(o.ID, o.PrimaryKeys)
	case *core.RowInsert:
		if len(o.Values) == 0 {
			return invalid(o.ID, "insert requires at least one value")
		}
		for col := range o.Values {
			if col == "" {
				return invalid(o.ID, "insert value is missing a column name")
			}
		}
		return nil
	case *core.RowDelete:
		if len(o.PrimaryKeys) == 0 {
			return invalid(o.ID, "delete requires at least one primary key value")
		}
		return validatePrimaryKeys(o.ID, o.PrimaryKeys)
	case nil:
		return invalid("", "operation is nil")
	default:
		return invalid(op.OperationID(), "unknown operation kind")
	}
}

func validatePrimaryKeys(id string, pks []core.PrimaryKeyValue) error {
	seen := make(map[string]struct{}, len(pks))
	for _, pk := range pks {
		if pk.Column == "" {
			return invalid(id, "primary key value is missing a column name")
		}
		if _, dup := seen[pk.Column]; dup {
			return invalid(id, "duplicate primary key column "+pk.Column)
		}
		seen[pk.Column] = struct{}{}
	}
	return nil
}

func invalid(id, msg string) *core.ValidationError {
	return &core.ValidationError{Subject: id, Message: msg}
}
