// Package codec turns cached values into bytes and back.
//
// Every Get decodes from the stored bytes, so a codec sits on the read path of
// every cache hit.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
