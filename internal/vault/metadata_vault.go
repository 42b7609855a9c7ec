// Package vault implements MetadataVault: envelope encryption of the
// per-file Manifest under the process-wide MasterKey, and its atomic
// persistence to the local metadata directory.
package vault

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/shardmesh/internal/cryptutil"
	"github.com/shardmesh/shardmesh/internal/domain"
	shardmesherrors "github.com/shardmesh/shardmesh/internal/errors"
)

// MetadataVault serializes, encrypts, and persists manifests under a
// single master key loaded once at construction.
type MetadataVault struct {
	cipher    cryptutil.AuthenticatedCipher
	masterKey []byte
}

// NewMetadataVault constructs a vault bound to masterKey. If masterKey is
// nil, a fresh key is generated and a warning logged: previously
// persisted manifests encrypted under a different key become unreadable.
func NewMetadataVault(cipher cryptutil.AuthenticatedCipher, masterKey []byte) (*MetadataVault, error) {
	if masterKey == nil {
		key, err := cipher.GenerateKey()
		if err != nil {
			return nil, err
		}
		masterKey = key
		log.Warnf("MASTER_VAULT_KEY not set; generated an ephemeral key — metadata will not be recoverable after restart")
	}
	return &MetadataVault{cipher: cipher, masterKey: masterKey}, nil
}

// Save serializes manifest to canonical JSON, encrypts it under the
// master key, and writes the ciphertext atomically to path (temp file in
// the same directory, then rename).
func (v *MetadataVault) Save(manifest domain.Manifest, path string) error {
	plaintext, err := json.Marshal(manifest)
	if err != nil {
		return err
	}

	ciphertext, err := v.cipher.Encrypt(v.masterKey, plaintext)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-manifest-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(ciphertext); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

// Load reads the encrypted manifest at path, decrypts it under the master
// key, and parses the canonical JSON. Fails with ErrMetadataDecrypt if the
// master key is wrong or the file is corrupt.
func (v *MetadataVault) Load(path string) (domain.Manifest, error) {
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		return domain.Manifest{}, err
	}

	plaintext, err := v.cipher.Decrypt(v.masterKey, ciphertext)
	if err != nil {
		return domain.Manifest{}, shardmesherrors.ErrMetadataDecrypt
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(plaintext, &manifest); err != nil {
		return domain.Manifest{}, shardmesherrors.ErrMetadataDecrypt
	}

	return manifest, nil
}
