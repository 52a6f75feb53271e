package core

// FieldInfo describes one column of a result set.
type FieldInfo struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// StatementResult is the outcome of one statement of a script.
// Rows is meaningful when IsDataReturning, RowCount otherwise reports affected rows.
type StatementResult struct {
	Statement       string      `json:"statement"`
	StatementIndex  int         `json:"statementIndex"`
	Rows            [][]any     `json:"rows"`
	Fields          []FieldInfo `json:"fields"`
	RowCount        int64       `json:"rowCount"`
	DurationMs      float64     `json:"durationMs"`
	IsDataReturning bool        `json:"isDataReturning"`
}

// MultiStatementResult aggregates the results of a script in execution order.
type MultiStatementResult struct {
	Results         []StatementResult `json:"results"`
	TotalDurationMs float64           `json:"totalDurationMs"`
	StatementCount  int               `json:"statementCount"`
}

// Primary returns the first data-returning result, or the first result if
// none return data. It returns nil for an empty script.
func (m *MultiStatementResult) Primary() *StatementResult {
	if m == nil || len(m.Results) == 0 {
		return nil
	}
	for i := range m.Results {
		if m.Results[i].IsDataReturning {
			return &m.Results[i]
		}
	}
	return &m.Results[0]
}

// TxResult is the outcome of a committed transaction.
type TxResult struct {
	RowsAffected int64 `json:"rowsAffected"`
}
