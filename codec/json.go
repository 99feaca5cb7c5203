package codec

import "encoding/json"

// JSON is a Codec backed by encoding/json. Data is base64 inside the document,
// so prefer Msgpack or CBOR for large payloads.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
