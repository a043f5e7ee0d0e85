package bridge

import (
	"encoding/json"
	"time"
)

// Arguments is the dynamically-typed argument bag that accompanies a method
// call across the boundary. Values carry whatever types the transport's
// decoder produced (JSON numbers arrive as float64 or json.Number, nested
// structures as map[string]interface{} and []interface{}), so every read
// goes through an explicit, typed decode step.
type Arguments map[string]interface{}

// Int64 decodes a required integer parameter.
func (a Arguments) Int64(method, key string) (int64, error) {
	v, ok := a[key]
	if !ok {
		return 0, &MissingParameterError{Method: method, Parameter: key}
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, &MissingParameterError{Method: method, Parameter: key}
	}
	return n, nil
}

// OptionalInt64 decodes an integer parameter that may be absent. A value
// present with an unusable type is treated as absent.
func (a Arguments) OptionalInt64(key string) (int64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// String decodes a required string parameter.
func (a Arguments) String(method, key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", &MissingParameterError{Method: method, Parameter: key}
	}
	s, ok := v.(string)
	if !ok {
		return "", &MissingParameterError{Method: method, Parameter: key}
	}
	return s, nil
}

// OptionalString decodes a string parameter that may be absent.
func (a Arguments) OptionalString(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Value reads a required parameter of any type. An explicit null counts as
// present; only a missing key fails.
func (a Arguments) Value(method, key string) (interface{}, error) {
	v, ok := a[key]
	if !ok {
		return nil, &MissingParameterError{Method: method, Parameter: key}
	}
	return v, nil
}

// Bag decodes a required nested attribute bag.
func (a Arguments) Bag(method, key string) (map[string]interface{}, error) {
	v, ok := a[key]
	if !ok {
		return nil, &MissingParameterError{Method: method, Parameter: key}
	}
	bag, ok := v.(map[string]interface{})
	if !ok {
		return nil, &MissingParameterError{Method: method, Parameter: key}
	}
	return bag, nil
}

// OptionalBag decodes a nested attribute bag that may be absent.
func (a Arguments) OptionalBag(key string) (map[string]interface{}, bool) {
	v, ok := a[key]
	if !ok {
		return nil, false
	}
	bag, ok := v.(map[string]interface{})
	return bag, ok
}

// Time decodes a required timestamp parameter. Timestamps cross the
// boundary as integer microseconds since the Unix epoch; microseconds is
// the boundary's maximum resolution.
func (a Arguments) Time(method, key string) (time.Time, error) {
	us, err := a.Int64(method, key)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(us), nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
