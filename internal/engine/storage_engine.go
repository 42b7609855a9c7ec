// Package engine implements StorageEngine: the cryptographic storage
// pipeline composing AuthenticatedCipher, ErasureCodec, and Hasher into
// encrypt_and_shard / verify_and_decrypt over a per-file data key.
package engine

import (
	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/shardmesh/internal/cryptutil"
	"github.com/shardmesh/shardmesh/internal/erasure"
	shardmesherrors "github.com/shardmesh/shardmesh/internal/errors"
)

// KRequired and MTotal are the erasure coding constants: any 3 of 5
// shards reconstruct the original ciphertext.
const (
	KRequired = 3
	MTotal    = 5
)

// StorageEngine owns a per-file DataKey and composes the cipher, codec,
// and hasher to turn plaintext into verifiable shards and back.
type StorageEngine struct {
	cipher  cryptutil.AuthenticatedCipher
	codec   erasure.Codec
	dataKey []byte
}

// NewStorageEngine constructs a StorageEngine bound to the given data key.
// Pass nil to have one generated.
func NewStorageEngine(cipher cryptutil.AuthenticatedCipher, codec erasure.Codec, dataKey []byte) (*StorageEngine, error) {
	if dataKey == nil {
		key, err := cipher.GenerateKey()
		if err != nil {
			return nil, err
		}
		dataKey = key
	}
	return &StorageEngine{cipher: cipher, codec: codec, dataKey: dataKey}, nil
}

// DataKey returns the engine's data key in its serialized form, for
// embedding in the manifest.
func (e *StorageEngine) DataKey() []byte {
	return e.dataKey
}

// EncryptAndShard encrypts plaintext with the engine's data key, pads the
// ciphertext to a multiple of KRequired, and erasure-codes it into MTotal
// shards, each tagged with its SHA-256 hash.
func (e *StorageEngine) EncryptAndShard(plaintext []byte) (shards [][]byte, hashes map[int]string, err error) {
	ciphertext, err := e.cipher.Encrypt(e.dataKey, plaintext)
	if err != nil {
		return nil, nil, err
	}

	pad := (KRequired - (len(ciphertext) % KRequired)) % KRequired
	padded := make([]byte, len(ciphertext)+pad)
	copy(padded, ciphertext)

	shards, err = e.codec.Encode(padded, KRequired, MTotal)
	if err != nil {
		return nil, nil, err
	}

	hashes = make(map[int]string, MTotal)
	for i := 0; i < MTotal; i++ {
		hashes[i] = cryptutil.SHA256Hex(shards[i])
	}

	return shards, hashes, nil
}

// VerifyAndDecrypt checks every given shard's integrity unconditionally
// before attempting any erasure decode. A shard failing integrity is
// excluded rather than aborting the whole operation, provided enough
// verified shards (≥ KRequired) remain — the resilient reconstruction
// policy. Only when too few verified shards remain does it fail with
// ErrIntegrityViolation (if the shortfall is caused by a tampered shard)
// or ErrInsufficientShards (if simply too few shards were supplied).
func (e *StorageEngine) VerifyAndDecrypt(shards [][]byte, indices []int, expectedHashes map[int]string) ([]byte, error) {
	if len(shards) < KRequired {
		return nil, shardmesherrors.ErrInsufficientShards
	}

	type verified struct {
		index int
		shard []byte
	}

	var good []verified
	var firstBadIndex = -1
	for i, shard := range shards {
		idx := indices[i]
		expected, ok := expectedHashes[idx]
		if !ok {
			return nil, shardmesherrors.ErrMissingShardHash
		}

		actual := cryptutil.SHA256Hex(shard)
		if actual != expected {
			log.Warnf("shard %d failed integrity check: expected %s, got %s", idx, expected, actual)
			if firstBadIndex == -1 {
				firstBadIndex = idx
			}
			continue
		}
		good = append(good, verified{index: idx, shard: shard})
	}

	if firstBadIndex != -1 && len(good) < KRequired {
		return nil, &shardmesherrors.IntegrityViolationError{ShardIndex: firstBadIndex}
	}
	if len(good) < KRequired {
		return nil, shardmesherrors.ErrInsufficientShards
	}

	decodeShards := make([][]byte, KRequired)
	decodeIndices := make([]int, KRequired)
	for i := 0; i < KRequired; i++ {
		decodeShards[i] = good[i].shard
		decodeIndices[i] = good[i].index
	}

	padded, err := e.codec.Decode(decodeShards, decodeIndices, KRequired, MTotal)
	if err != nil {
		return nil, err
	}

	ciphertext := stripTrailingZeroes(padded)

	plaintext, err := e.cipher.Decrypt(e.dataKey, ciphertext)
	if err != nil {
		return nil, shardmesherrors.ErrAuth
	}

	return plaintext, nil
}

// stripTrailingZeroes removes the zero padding appended in EncryptAndShard.
// Safe because the Fernet envelope is URL-safe-base64 text and its final
// authentication byte is effectively random, so genuine ciphertext bytes
// are never all-zero runs at the end.
func stripTrailingZeroes(padded []byte) []byte {
	end := len(padded)
	for end > 0 && padded[end-1] == 0x00 {
		end--
	}
	return padded[:end]
}
