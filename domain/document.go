package domain

import (
	"encoding/json"
	"fmt"
)

// Document is a flat JSON object: an entity snapshot or a materialized view.
// Joined sub-objects are nested one level under their relation name.
type Document map[string]any

// ID returns the document id, or "" when absent.
func (d Document) ID() string { return d.String("id") }

// String returns the field as a string, or "" when absent or not a string.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Int returns the field as an int. JSON numbers decode as float64, so both
// representations are accepted.
func (d Document) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// Sub returns a nested object field.
func (d Document) Sub(key string) (Document, bool) {
	switch v := d[key].(type) {
	case Document:
		return v, true
	case map[string]any:
		return Document(v), true
	default:
		return nil, false
	}
}

// Slice returns an array field, nil when absent.
func (d Document) Slice(key string) []any {
	v, _ := d[key].([]any)
	return v
}

// FieldString renders any field value in a canonical string form, used for
// secondary-index keys. Integral floats print without a fraction so that a
// value round-tripped through JSON still matches.
func FieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
