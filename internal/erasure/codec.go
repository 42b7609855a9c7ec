// Package erasure implements the ErasureCodec capability: splitting a
// padded byte string into m shards with any-k reconstructability, using
// the same systematic Reed-Solomon convention as zfec (the first k shards
// are identity chunks of the input, the remaining m-k are parity).
package erasure

import (
	"bytes"

	"github.com/klauspost/reedsolomon"

	shardmesherrors "github.com/shardmesh/shardmesh/internal/errors"
)

// Codec is the capability interface the storage engine composes.
type Codec interface {
	Encode(padded []byte, k, m int) ([][]byte, error)
	Decode(shards [][]byte, indices []int, k, m int) ([]byte, error)
}

// ReedSolomonCodec wraps klauspost/reedsolomon, which produces the same
// systematic-code layout zfec uses.
type ReedSolomonCodec struct{}

// NewReedSolomonCodec constructs the reference ErasureCodec.
func NewReedSolomonCodec() *ReedSolomonCodec {
	return &ReedSolomonCodec{}
}

// Encode splits padded (whose length must be divisible by k) into k data
// chunks and encodes m-k parity chunks alongside them, returning all m
// shards in index order.
func (ReedSolomonCodec) Encode(padded []byte, k, m int) ([][]byte, error) {
	enc, err := reedsolomon.New(k, m-k)
	if err != nil {
		return nil, err
	}

	shards, err := enc.Split(padded)
	if err != nil {
		return nil, err
	}

	if err := enc.Encode(shards); err != nil {
		return nil, err
	}

	return shards, nil
}

// Decode reconstructs the padded input from exactly k shards at their
// recorded indices. Indices must be distinct and in [0, m); shard lengths
// must agree.
func (ReedSolomonCodec) Decode(shards [][]byte, indices []int, k, m int) ([]byte, error) {
	if len(shards) != k || len(indices) != k {
		return nil, shardmesherrors.ErrDecode
	}

	shardLen := -1
	seen := make(map[int]bool, k)
	full := make([][]byte, m)
	for i, idx := range indices {
		if idx < 0 || idx >= m {
			return nil, shardmesherrors.ErrDecode
		}
		if seen[idx] {
			return nil, shardmesherrors.ErrDecode
		}
		seen[idx] = true

		if shardLen == -1 {
			shardLen = len(shards[i])
		} else if len(shards[i]) != shardLen {
			return nil, shardmesherrors.ErrDecode
		}
		full[idx] = shards[i]
	}

	enc, err := reedsolomon.New(k, m-k)
	if err != nil {
		return nil, shardmesherrors.ErrDecode
	}

	if err := enc.Reconstruct(full); err != nil {
		return nil, shardmesherrors.ErrDecode
	}

	var buf bytes.Buffer
	outSize := k * shardLen
	if err := enc.Join(&buf, full, outSize); err != nil {
		return nil, shardmesherrors.ErrDecode
	}

	return buf.Bytes(), nil
}
