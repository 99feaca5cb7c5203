// Package codec turns records into bytes for repositories that store blobs
// (Redis, BigCache). The Mongo repository stores documents and needs no codec.
package codec

import "github.com/unkn0wn-root/doccache/repository"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Record is the codec shape every byte-store repository takes.
type Record = Codec[repository.Record]

// Default returns the codec byte stores use when none is configured.
func Default() Record { return Msgpack[repository.Record]{} }
