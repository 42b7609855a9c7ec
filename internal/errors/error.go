package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAuth                  = errors.New("authenticated decryption failed: bad key or tampered ciphertext")
	ErrDecode                = errors.New("erasure decode failed")
	ErrIntegrityViolation    = errors.New("shard integrity violation: tampering detected")
	ErrMissingShardHash      = errors.New("no recorded hash for shard")
	ErrInsufficientShards    = errors.New("insufficient shards available for reconstruction")
	ErrTransactionAborted    = errors.New("upload transaction aborted, rollback completed")
	ErrMetadataDecrypt       = errors.New("metadata vault decryption failed")
	ErrFileIntegrityMismatch = errors.New("reconstructed file hash does not match manifest")
	ErrEmptyFile             = errors.New("cannot upload empty file")
)

// IntegrityViolationError wraps ErrIntegrityViolation with the offending
// shard index, satisfying errors.Is(err, ErrIntegrityViolation).
type IntegrityViolationError struct {
	ShardIndex int
}

func (e *IntegrityViolationError) Error() string {
	return fmt.Sprintf("shard %d integrity check failed: tampering detected", e.ShardIndex)
}

func (e *IntegrityViolationError) Unwrap() error {
	return ErrIntegrityViolation
}

// FetchingResourceError generates a formatted error for failed fetching of
// any resource by its identifier.
func FetchingResourceError(resource string) error {
	return fmt.Errorf("failed to fetch %s", resource)
}

// ConfigNotSetError reports a required configuration value that is absent.
func ConfigNotSetError(config string) error {
	return fmt.Errorf("the %s configuration value must be set", config)
}
