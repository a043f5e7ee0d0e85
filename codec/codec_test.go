package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	assert.Nil(t, Encode(nil))
	assert.Equal(t, "s", Encode("s"))
	assert.Equal(t, true, Encode(true))
	assert.Equal(t, int64(3), Encode(3))
	assert.Equal(t, int64(3), Encode(uint8(3)))
	assert.Equal(t, int64(3), Encode(int32(3)))
	assert.Equal(t, 3.5, Encode(3.5))
	assert.Equal(t, float64(float32(1.5)), Encode(float32(1.5)))
}

func TestEncodeJSONNumbers(t *testing.T) {
	assert.Equal(t, int64(1644238303500000), Encode(json.Number("1644238303500000")))
	assert.Equal(t, 2.5, Encode(json.Number("2.5")))
	assert.Equal(t, "1e999", Encode(json.Number("1e999")))
}

func TestEncodeNested(t *testing.T) {
	encoded := Encode(map[string]interface{}{
		"user": map[string]interface{}{
			"id":    json.Number("12"),
			"roles": []interface{}{"admin", json.Number("2")},
		},
		"null": nil,
	})

	bag, ok := encoded.(map[string]interface{})
	require.True(t, ok)
	user := bag["user"].(map[string]interface{})
	assert.Equal(t, int64(12), user["id"])
	assert.Equal(t, []interface{}{"admin", int64(2)}, user["roles"])
	assert.Nil(t, bag["null"])
}

func TestEncodeUntypedMapKeys(t *testing.T) {
	encoded := Encode(map[interface{}]interface{}{1: "one"})

	bag, ok := encoded.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "one", bag["1"])
}

// A single unencodable attribute must not abort a whole call; it becomes
// a string.
func TestEncodeUnrecognizedTypeStringifies(t *testing.T) {
	type opaque struct{ A int }

	encoded := Encode(opaque{A: 1})
	_, ok := encoded.(string)
	assert.True(t, ok)
}

func TestLogFieldsPicksTypedConstructors(t *testing.T) {
	fields := LogFields(map[string]interface{}{
		"message": "hi",
		"flag":    true,
		"count":   json.Number("3"),
		"ratio":   0.5,
		"nested":  map[string]interface{}{"k": "v"},
	})
	require.Len(t, fields, 5)

	byKey := map[string]interface{}{}
	for _, f := range fields {
		byKey[f.Key()] = f.Value()
	}
	assert.Equal(t, "hi", byKey["message"])
	assert.Equal(t, true, byKey["flag"])
	assert.Equal(t, int64(3), byKey["count"])
	assert.Equal(t, 0.5, byKey["ratio"])
	assert.Equal(t, map[string]interface{}{"k": "v"}, byKey["nested"])
}

func TestToWireTimes(t *testing.T) {
	assert.Equal(t, int64(2000000), ToWire(time.UnixMicro(2000000)))
	assert.Equal(t, int64(1500000), ToWire(1500*time.Millisecond))
}

func TestToWireMaps(t *testing.T) {
	headers := map[string]string{"trace-id": "1"}
	assert.Equal(t, headers, ToWire(headers))

	wire := ToWire(map[string]interface{}{"at": time.UnixMicro(1000000)})
	assert.Equal(t, map[string]interface{}{"at": int64(1000000)}, wire)
}
