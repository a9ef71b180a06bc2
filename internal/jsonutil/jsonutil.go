// Package jsonutil provides shared helpers for moving loosely-typed property
// values (as they come out of a property store) into typed Go values.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// UnmarshalWithContext unmarshals JSON data into v and wraps any error
// with the provided context message.
func UnmarshalWithContext(data []byte, v interface{}, context string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", context, err)
	}
	return nil
}

// Convert re-encodes a generic value (map[string]interface{}, []interface{},
// json.RawMessage, or an already-typed value) into dst.
// A nil src leaves dst untouched.
func Convert(src interface{}, dst interface{}, context string) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		b, err := json.Marshal(src)
		if err != nil {
			return fmt.Errorf("%s: %w", context, err)
		}
		data = b
	}
	return UnmarshalWithContext(data, dst, context)
}

// Normalize round-trips v through JSON so that callers always see the
// generic shapes encoding/json produces (float64 numbers, map[string]interface{}).
func Normalize(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetString safely extracts a string value from a map[string]interface{}.
// Returns the value if it's a string, otherwise returns empty string.
func GetString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

// GetStringOr safely extracts a string value from a map[string]interface{}
// with a default value if the key doesn't exist or isn't a string.
func GetStringOr(m map[string]interface{}, key string, defaultValue string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return defaultValue
}

// GetMap returns the nested object stored under key, or nil.
func GetMap(m map[string]interface{}, key string) map[string]interface{} {
	if val, ok := m[key].(map[string]interface{}); ok {
		return val
	}
	return nil
}

// ToString converts an interface{} value to a string representation.
// Handles string, float64 (formatted as integer), bool, and other types.
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// Format as integer for whole numbers, otherwise as float
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
