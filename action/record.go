package action

import (
	"encoding/json"
	"fmt"
)

// Record is the generic serialized shape of one action:
//
//	{ "type": <tag>, "name": <string>, ...variant fields..., [nested lists] }
//
// Nested action lists are []Record (or []any of maps after a JSON round
// trip); the factory normalizes both.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the string value under key, or "" when absent.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	return s
}

// Int returns the integer value under key. JSON decoding produces float64,
// so both are accepted.
func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
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

// Float returns the float value under key.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Map returns the map value under key, or nil when absent.
func (r Record) Map(key string) map[string]any {
	switch v := r[key].(type) {
	case map[string]any:
		return v
	case Record:
		return map[string]any(v)
	default:
		return nil
	}
}

// recordList normalizes the value under key to []Record. Returns nil when
// the key is absent; an error when the value is not a list of records.
func (r Record) recordList(key string) ([]Record, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []Record:
		return list, nil
	case []map[string]any:
		out := make([]Record, len(list))
		for i, m := range list {
			out[i] = Record(m)
		}
		return out, nil
	case []any:
		out := make([]Record, len(list))
		for i, item := range list {
			switch m := item.(type) {
			case Record:
				out[i] = m
			case map[string]any:
				out[i] = Record(m)
			default:
				return nil, &SerializationError{Detail: fmt.Sprintf("field %q item %d is not a record", key, i)}
			}
		}
		return out, nil
	default:
		return nil, &SerializationError{Detail: fmt.Sprintf("field %q is not a list of records", key)}
	}
}

// record normalizes the value under key to a single Record. Returns nil when
// the key is absent.
func (r Record) record(key string) (Record, error) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case Record:
		return m, nil
	case map[string]any:
		return Record(m), nil
	default:
		return nil, &SerializationError{Detail: fmt.Sprintf("field %q is not a record", key)}
	}
}

// ToRecords serializes a list of actions.
func ToRecords(actions []Action) []Record {
	out := make([]Record, len(actions))
	for i, a := range actions {
		out[i] = a.ToRecord()
	}
	return out
}
