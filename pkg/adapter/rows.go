package adapter

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// binaryTypes are driver type names whose []byte values stay binary.
var binaryTypes = map[string]struct{}{
	"BYTEA": {}, "BLOB": {}, "TINYBLOB": {}, "MEDIUMBLOB": {}, "LONGBLOB": {},
	"BINARY": {}, "VARBINARY": {}, "IMAGE": {}, "BIT": {}, "GEOMETRY": {},
}

// ScanRows reads every row of rows into memory and closes it.
// Textual []byte values are converted to strings.
func ScanRows(rows *sql.Rows) ([]core.FieldInfo, [][]any, error) {
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	fields := make([]core.FieldInfo, len(types))
	for i, ct := range types {
		fields[i] = core.FieldInfo{Name: ct.Name(), DataType: strings.ToLower(ct.DatabaseTypeName())}
	}

	data := [][]any{}
	for rows.Next() {
		values := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v, types[i].DatabaseTypeName())
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return fields, data, nil
}

func normalizeValue(v any, dbType string) any {
	switch x := v.(type) {
	case []byte:
		if _, ok := binaryTypes[strings.ToUpper(dbType)]; ok {
			out := make([]byte, len(x))
			copy(out, x)
			return out
		}
		return string(x)
	default:
		return v
	}
}
