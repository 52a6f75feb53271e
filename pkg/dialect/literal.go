package dialect

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// QuoteString renders s as a string literal.
func (r *Rules) QuoteString(s string) string {
	if r.cfg.Literals.BackslashEscape {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return r.cfg.Literals.StringPrefix + "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// FormatLiteral renders a value as a SQL literal for display.
// The output is only used by preview paths, never for execution.
func (r *Rules) FormatLiteral(v any, dataType string) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return r.cfg.Literals.True
		}
		return r.cfg.Literals.False
	case string:
		return r.QuoteString(val)
	case []byte:
		return r.cfg.Literals.BytesPrefix + hex.EncodeToString(val) + r.cfg.Literals.BytesSuffix
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10)
	case float32:
		return r.formatFloat(float64(val))
	case float64:
		return r.formatFloat(val)
	case json.Number:
		return val.String()
	case time.Time:
		return r.QuoteString(val.Format("2006-01-02 15:04:05.999999Z07:00"))
	case fmt.Stringer:
		return r.QuoteString(val.String())
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && r.cfg.Features.Arrays && isArrayType(dataType) {
		elems := make([]string, rv.Len())
		for i := range elems {
			elems[i] = r.FormatLiteral(rv.Index(i).Interface(), strings.TrimSuffix(dataType, "[]"))
		}
		return "ARRAY[" + strings.Join(elems, ", ") + "]"
	}

	b, err := json.Marshal(v)
	if err != nil {
		return r.QuoteString(fmt.Sprint(v))
	}
	return r.QuoteString(string(b))
}

func (r *Rules) formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return r.QuoteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BindValue converts a value into the form handed to the driver.
// Structured values (maps, non-byte slices) are JSON encoded unless the
// dialect has native arrays and the column is an array column.
func (r *Rules) BindValue(v any, dataType string) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.(type) {
	case []byte, string, bool, time.Time, json.Number:
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		return marshalJSON(v)
	case reflect.Slice, reflect.Array:
		if r.cfg.Features.Arrays && isArrayType(dataType) {
			return v, nil
		}
		return marshalJSON(v)
	default:
		return v, nil
	}
}

func marshalJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value as JSON: %w", err)
	}
	return string(b), nil
}

// isArrayType reports whether a Postgres type name denotes an array.
func isArrayType(dataType string) bool {
	return strings.HasSuffix(dataType, "[]") || strings.HasPrefix(dataType, "_") || strings.EqualFold(dataType, "ARRAY")
}

// Binder turns values into SQL fragments while a statement is built.
// The parameter binder emits placeholders and records params; the literal
// binder inlines literals. Both walk the same code path so a preview never
// diverges from the statement that runs.
type Binder interface {
	Bind(v any, dataType string) (string, error)
}

// ParamBinder allocates placeholders strictly in emission order.
type ParamBinder struct {
	rules  *Rules
	params []any
}

// NewParamBinder creates a binder that produces placeholders.
func NewParamBinder(r *Rules) *ParamBinder {
	return &ParamBinder{rules: r}
}

// Bind records v and returns the next placeholder.
func (b *ParamBinder) Bind(v any, dataType string) (string, error) {
	bound, err := b.rules.BindValue(v, dataType)
	if err != nil {
		return "", err
	}
	b.params = append(b.params, bound)
	return b.rules.FormatPlaceholder(len(b.params)), nil
}

// Params returns the values bound so far, in placeholder order.
func (b *ParamBinder) Params() []any {
	if b.params == nil {
		return []any{}
	}
	return b.params
}

// LiteralBinder inlines values as literals.
type LiteralBinder struct {
	rules *Rules
}

// NewLiteralBinder creates a binder that produces literals.
func NewLiteralBinder(r *Rules) *LiteralBinder {
	return &LiteralBinder{rules: r}
}

// Bind returns v formatted as a literal.
func (b *LiteralBinder) Bind(v any, dataType string) (string, error) {
	return b.rules.FormatLiteral(v, dataType), nil
}
