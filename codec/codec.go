// Package codec converts between the dynamically-typed attribute values
// that cross the call boundary and values the tracer can encode. The wire
// side carries strings, numbers, booleans, nulls and nested maps and
// sequences; anything else is stringified rather than rejected, so a
// single odd attribute never aborts a whole call.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	opentracinglog "github.com/opentracing/opentracing-go/log"
)

// Encode normalizes an arbitrary decoded wire value into the tracer's
// encodable set: string, bool, int64, float64, nil, map[string]interface{}
// and []interface{}, applied recursively. All integer widths collapse to
// int64 and float32 widens to float64 so downstream encoders see a single
// representation per kind.
func Encode(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case int64:
		return t
	case float64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	case int8:
		return int64(t)
	case uint:
		return int64(t)
	case uint32:
		return int64(t)
	case uint16:
		return int64(t)
	case uint8:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		return EncodeBag(t)
	case map[interface{}]interface{}:
		// Some boundary codecs decode maps with untyped keys.
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Encode(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Encode(val)
		}
		return out
	default:
		return fmt.Sprint(t)
	}
}

// EncodeBag applies Encode across an attribute bag.
func EncodeBag(bag map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(bag))
	for k, v := range bag {
		out[k] = Encode(v)
	}
	return out
}

// LogFields converts an attribute bag into opentracing log fields, picking
// the typed field constructor per kind and falling back to an object field
// for nested or null values.
func LogFields(bag map[string]interface{}) []opentracinglog.Field {
	fields := make([]opentracinglog.Field, 0, len(bag))
	for k, v := range bag {
		switch t := Encode(v).(type) {
		case string:
			fields = append(fields, opentracinglog.String(k, t))
		case bool:
			fields = append(fields, opentracinglog.Bool(k, t))
		case int64:
			fields = append(fields, opentracinglog.Int64(k, t))
		case float64:
			fields = append(fields, opentracinglog.Float64(k, t))
		default:
			fields = append(fields, opentracinglog.Object(k, t))
		}
	}
	return fields
}

// ToWire converts a tracer-side value back into a wire-safe value for the
// response path. Times and durations become integer microseconds, the
// boundary's maximum resolution; everything else normalizes through
// Encode.
func ToWire(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMicro()
	case time.Duration:
		return t.Microseconds()
	case map[string]string:
		return t
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = ToWire(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = ToWire(val)
		}
		return out
	default:
		return Encode(t)
	}
}
