package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one result row. It marshals to a JSON object whose keys keep the
// column order of the result set.
type Row struct {
	Columns []string
	Values  []any
}

// NewRow pairs column names with values. Both slices must have equal length.
func NewRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

// Get returns the value of the named column.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// MarshalJSON writes the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if len(r.Columns) != len(r.Values) {
		return nil, fmt.Errorf("row has %d columns but %d values", len(r.Columns), len(r.Values))
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object and keeps its key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	r.Columns = r.Columns[:0]
	r.Values = r.Values[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("row key must be a string")
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		r.Columns = append(r.Columns, key)
		r.Values = append(r.Values, val)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
