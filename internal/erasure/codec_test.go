package erasure_test

import (
	"bytes"
	"testing"

	"github.com/shardmesh/shardmesh/internal/erasure"
)

func TestReedSolomonCodec_RoundTrip(t *testing.T) {
	codec := erasure.NewReedSolomonCodec()
	const k, m = 3, 5

	tests := []struct {
		name string
		data []byte
	}{
		{"divisible length", bytes.Repeat([]byte("a"), 12)},
		{"single byte per shard", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shards, err := codec.Encode(tt.data, k, m)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(shards) != m {
				t.Fatalf("got %d shards, want %d", len(shards), m)
			}

			decoded, err := codec.Decode(shards[:k], []int{0, 1, 2}, k, m)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Errorf("Decode() = %q, want %q", decoded, tt.data)
			}
		})
	}
}

func TestReedSolomonCodec_AnyKShardsReconstruct(t *testing.T) {
	codec := erasure.NewReedSolomonCodec()
	const k, m = 3, 5
	data := bytes.Repeat([]byte("shardmesh"), 30)

	shards, err := codec.Encode(data, k, m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	subsets := [][]int{
		{0, 1, 2},
		{0, 2, 4},
		{1, 3, 4},
		{2, 3, 4},
	}

	for _, indices := range subsets {
		picked := make([][]byte, k)
		for i, idx := range indices {
			picked[i] = shards[idx]
		}
		decoded, err := codec.Decode(picked, indices, k, m)
		if err != nil {
			t.Fatalf("Decode(%v) error = %v", indices, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("Decode(%v) mismatch", indices)
		}
	}
}

func TestReedSolomonCodec_Decode_Errors(t *testing.T) {
	codec := erasure.NewReedSolomonCodec()
	const k, m = 3, 5
	data := bytes.Repeat([]byte("x"), 9)

	shards, err := codec.Encode(data, k, m)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name    string
		shards  [][]byte
		indices []int
	}{
		{"duplicate indices", shards[:3], []int{0, 0, 1}},
		{"out of range index", shards[:3], []int{0, 1, 5}},
		{"mismatched shard length", [][]byte{shards[0], shards[1], shards[2][:len(shards[2])-1]}, []int{0, 1, 2}},
		{"wrong count", shards[:2], []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Decode(tt.shards, tt.indices, k, m); err == nil {
				t.Error("Decode() expected error, got nil")
			}
		})
	}
}
