// Package document provides the nested JSON value stored per record.
// The document is keyed first by section keyword, then by field name.
package document

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Document represents the per-record JSONB data column.
// Implements sql.Scanner and driver.Valuer for PostgreSQL JSONB mapping.
//
// Uses json.Number when decoding to preserve numeric precision; the default
// Go JSON decoder converts numbers to float64, losing precision for decimals.
type Document map[string]any

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
func (d *Document) Scan(src any) error {
	if src == nil {
		*d = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for Document: %T", src)
	}

	if len(source) == 0 {
		*d = nil
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var result map[string]any
	if err := decoder.Decode(&result); err != nil {
		return fmt.Errorf("failed to decode Document: %w", err)
	}

	*d = result
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// SetPath walks the document along path, creating intermediate mapping
// levels as needed, and sets the leaf value. Sibling keys anywhere else in
// the document are preserved untouched; this is a structural merge, not a
// replacement. Mutates and returns the receiver (allocating it if nil).
func (d Document) SetPath(path []string, value any) Document {
	if len(path) == 0 {
		return d
	}
	if d == nil {
		d = make(Document)
	}

	current := map[string]any(d)
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value

	return d
}

// Section returns the nested mapping stored under the given section keyword,
// or nil when the document or the section is absent.
func (d Document) Section(keyword string) map[string]any {
	if d == nil {
		return nil
	}
	if v, ok := d[keyword].(map[string]any); ok {
		return v
	}
	return nil
}

// Rows returns the row list stored at document[section][field].
// Missing keys or non-list values yield nil.
func (d Document) Rows(section, field string) []any {
	sec := d.Section(section)
	if sec == nil {
		return nil
	}
	if rows, ok := sec[field].([]any); ok {
		return rows
	}
	return nil
}

// CellString reads document[section][field][row][col] as a string for
// tabular consumers. Any missing index or key yields the empty string.
func (d Document) CellString(section, field string, row int, col string) string {
	rows := d.Rows(section, field)
	if row < 0 || row >= len(rows) {
		return ""
	}
	rowMap, ok := rows[row].(map[string]any)
	if !ok {
		return ""
	}
	return Stringify(rowMap[col])
}

// Stringify renders a stored leaf value for tabular output. nil becomes
// the empty string; numbers render through Decimal, so "1.50" and "1.5e0"
// produce the same cell without losing precision.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number, float64:
		if dec, ok := Decimal(val); ok {
			return dec.String()
		}
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Decimal converts a stored numeric leaf to a decimal with full precision.
// The second return reports whether the value was numeric.
func Decimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case json.Number:
		dec, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return dec, true
	case float64:
		return decimal.NewFromFloat(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	}
	return decimal.Decimal{}, false
}
