package vault_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shardmesh/shardmesh/internal/cryptutil"
	"github.com/shardmesh/shardmesh/internal/domain"
	shardmesherrors "github.com/shardmesh/shardmesh/internal/errors"
	"github.com/shardmesh/shardmesh/internal/vault"
)

func sampleManifest() domain.Manifest {
	return domain.Manifest{
		Filename:      "report.pdf",
		FileHash:      "deadbeef",
		FileSize:      1024,
		EncryptionKey: "super-secret-data-key",
		KRequired:     3,
		MTotal:        5,
		ShardMetadata: map[string]domain.ShardRecord{
			"0": {Hash: "h0", NodeURL: "http://node-a", ShardIdentifier: "report_shard_0"},
			"1": {Hash: "h1", NodeURL: "http://node-b", ShardIdentifier: "report_shard_1"},
		},
	}
}

func TestMetadataVault_SaveLoad_RoundTrip(t *testing.T) {
	cipher := cryptutil.NewFernetCipher()
	key, _ := cipher.GenerateKey()
	mv, err := vault.NewMetadataVault(cipher, key)
	if err != nil {
		t.Fatalf("NewMetadataVault() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "report.metadata.json")
	manifest := sampleManifest()

	if err := mv.Save(manifest, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := mv.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Filename != manifest.Filename || loaded.FileHash != manifest.FileHash {
		t.Errorf("Load() = %+v, want %+v", loaded, manifest)
	}
	if len(loaded.ShardMetadata) != len(manifest.ShardMetadata) {
		t.Errorf("Load() shard metadata length = %d, want %d", len(loaded.ShardMetadata), len(manifest.ShardMetadata))
	}
}

func TestMetadataVault_Save_LeavesNoTempFileBehind(t *testing.T) {
	cipher := cryptutil.NewFernetCipher()
	key, _ := cipher.GenerateKey()
	mv, err := vault.NewMetadataVault(cipher, key)
	if err != nil {
		t.Fatalf("NewMetadataVault() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "report.metadata.json")
	if err := mv.Save(sampleManifest(), path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(path) {
		t.Errorf("directory contains unexpected entries: %v", entries)
	}
}

func TestMetadataVault_Load_WrongMasterKeyFails(t *testing.T) {
	cipher := cryptutil.NewFernetCipher()
	key, _ := cipher.GenerateKey()
	otherKey, _ := cipher.GenerateKey()

	mv, err := vault.NewMetadataVault(cipher, key)
	if err != nil {
		t.Fatalf("NewMetadataVault() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "report.metadata.json")
	if err := mv.Save(sampleManifest(), path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	wrongMv, err := vault.NewMetadataVault(cipher, otherKey)
	if err != nil {
		t.Fatalf("NewMetadataVault() error = %v", err)
	}

	if _, err := wrongMv.Load(path); err != shardmesherrors.ErrMetadataDecrypt {
		t.Errorf("Load() error = %v, want ErrMetadataDecrypt", err)
	}
}

func TestMetadataVault_Load_CorruptedFileFails(t *testing.T) {
	cipher := cryptutil.NewFernetCipher()
	key, _ := cipher.GenerateKey()
	mv, err := vault.NewMetadataVault(cipher, key)
	if err != nil {
		t.Fatalf("NewMetadataVault() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "report.metadata.json")
	if err := os.WriteFile(path, []byte("not a valid fernet token"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := mv.Load(path); err != shardmesherrors.ErrMetadataDecrypt {
		t.Errorf("Load() error = %v, want ErrMetadataDecrypt", err)
	}
}

func TestNewMetadataVault_NilMasterKeyGeneratesEphemeralKey(t *testing.T) {
	cipher := cryptutil.NewFernetCipher()
	mv, err := vault.NewMetadataVault(cipher, nil)
	if err != nil {
		t.Fatalf("NewMetadataVault() error = %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "report.metadata.json")
	if err := mv.Save(sampleManifest(), path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := mv.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
