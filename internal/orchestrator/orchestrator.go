// Package orchestrator implements the Orchestrator: atomic, all-or-nothing
// shard distribution on upload, tolerant concurrent shard retrieval on
// download, node health polling, and per-filename mutual exclusion.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/shardmesh/internal/blobstore"
	"github.com/shardmesh/shardmesh/internal/cryptutil"
	"github.com/shardmesh/shardmesh/internal/domain"
	"github.com/shardmesh/shardmesh/internal/engine"
	shardmesherrors "github.com/shardmesh/shardmesh/internal/errors"
	"github.com/shardmesh/shardmesh/internal/erasure"
	"github.com/shardmesh/shardmesh/internal/nodepool"
	"github.com/shardmesh/shardmesh/internal/vault"
)

// Orchestrator owns the node pool, the metadata vault, and the
// per-filename mutex map that serializes uploads of the same name.
type Orchestrator struct {
	pool        *nodepool.Pool
	cipher      cryptutil.AuthenticatedCipher
	codec       erasure.Codec
	vault       *vault.MetadataVault
	metadataDir string
	downloadDir string
	concurrency int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// shardAssignment binds one shard index to the healthy node it was (or
// will be) sent to.
type shardAssignment struct {
	index           int
	nodeURL         string
	client          blobstore.BlobStore
	shardIdentifier string
}

// New constructs an Orchestrator. nodeURLs, metadataDir, and downloadDir
// are immutable for the orchestrator's lifetime. concurrency bounds how
// many shard puts/gets run in flight at once; values <= 0 fall back to
// engine.MTotal (i.e. unbounded for a single file's shard set).
func New(pool *nodepool.Pool, cipher cryptutil.AuthenticatedCipher, codec erasure.Codec, mv *vault.MetadataVault, metadataDir, downloadDir string, concurrency int) *Orchestrator {
	for _, url := range pool.NodeURLs() {
		log.Infof("orchestrator configured with storage node: %s", url)
	}
	if concurrency <= 0 {
		concurrency = engine.MTotal
	}
	return &Orchestrator{
		pool:        pool,
		cipher:      cipher,
		codec:       codec,
		vault:       mv,
		metadataDir: metadataDir,
		downloadDir: downloadDir,
		concurrency: concurrency,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex associated with filename, creating it on
// first use. Insertion is itself guarded against races.
func (o *Orchestrator) lockFor(filename string) *sync.Mutex {
	o.locksMu.Lock()
	defer o.locksMu.Unlock()

	if l, ok := o.locks[filename]; ok {
		return l
	}
	l := &sync.Mutex{}
	o.locks[filename] = l
	return l
}

// CheckNodeHealth polls a single node's heartbeat.
func (o *Orchestrator) CheckNodeHealth(ctx context.Context, nodeURL string) bool {
	return o.pool.CheckHealth(ctx, nodeURL)
}

// UploadFile reads localPath, encrypts and shards it, distributes shards
// across healthy nodes atomically, and persists the encrypted manifest.
// quiet suppresses per-shard progress bars on the puts. Returns the path
// of the written manifest.
func (o *Orchestrator) UploadFile(ctx context.Context, localPath string, quiet bool) (string, error) {
	filename := filepath.Base(localPath)

	lock := o.lockFor(filename)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", shardmesherrors.ErrEmptyFile
	}
	fileHash := cryptutil.SHA256Hex(data)

	se, err := engine.NewStorageEngine(o.cipher, o.codec, nil)
	if err != nil {
		return "", err
	}

	shardStart := time.Now()
	shards, hashes, err := se.EncryptAndShard(data)
	if err != nil {
		return "", err
	}
	log.Debugf("encrypt_and_shard took: %v", time.Since(shardStart))

	healthStart := time.Now()
	healthyURLs, healthyClients := o.pool.PollHealthy(ctx)
	log.Debugf("health poll took: %v", time.Since(healthStart))

	if len(healthyURLs) < engine.MTotal {
		return "", shardmesherrors.ErrInsufficientShards
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	assignments := make([]shardAssignment, engine.MTotal)
	for i := 0; i < engine.MTotal; i++ {
		assignments[i] = shardAssignment{
			index:           i,
			nodeURL:         healthyURLs[i],
			client:          healthyClients[i],
			shardIdentifier: fmt.Sprintf("%s_shard_%d", stem, i),
		}
	}

	putStart := time.Now()
	results := make([]bool, engine.MTotal)
	semaphore := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup
	for i, a := range assignments {
		wg.Add(1)
		go func(i int, a shardAssignment, shard []byte) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			results[i] = a.client.Put(ctx, a.shardIdentifier, shard, quiet)
		}(i, a, shards[a.index])
	}
	wg.Wait()
	log.Debugf("shard puts took: %v", time.Since(putStart))

	var failureCause error
	anyFailed := false
	for i, ok := range results {
		if !ok {
			anyFailed = true
			if failureCause == nil {
				failureCause = fmt.Errorf("put of shard %d to %s failed", i, assignments[i].nodeURL)
			}
		}
	}

	if anyFailed {
		o.rollback(ctx, assignments)
		log.Errorf("upload of %s aborted: %v", filename, failureCause)
		return "", shardmesherrors.ErrTransactionAborted
	}

	manifest := domain.Manifest{
		Filename:      filename,
		FileHash:      fileHash,
		FileSize:      int64(len(data)),
		EncryptionKey: string(se.DataKey()),
		KRequired:     engine.KRequired,
		MTotal:        engine.MTotal,
		ShardMetadata: make(map[string]domain.ShardRecord, engine.MTotal),
	}
	for _, a := range assignments {
		manifest.ShardMetadata[strconv.Itoa(a.index)] = domain.ShardRecord{
			Hash:            hashes[a.index],
			NodeURL:         a.nodeURL,
			ShardIdentifier: a.shardIdentifier,
		}
	}

	manifestPath := filepath.Join(o.metadataDir, stem+".metadata.json")
	metadataStart := time.Now()
	if err := o.vault.Save(manifest, manifestPath); err != nil {
		return "", err
	}
	log.Debugf("metadata write took: %v", time.Since(metadataStart))
	log.Debugf("total upload took: %v", time.Since(start))

	return manifestPath, nil
}

// rollback deletes every shard whose put was attempted, ignoring and
// merely logging delete failures — best-effort per spec §4.7.1 step 7.
func (o *Orchestrator) rollback(ctx context.Context, assignments []shardAssignment) {
	var wg sync.WaitGroup
	for _, a := range assignments {
		wg.Add(1)
		go func(a shardAssignment) {
			defer wg.Done()
			if !a.client.Delete(ctx, a.shardIdentifier) {
				log.Warnf("rollback: failed to delete orphaned shard %s on %s", a.shardIdentifier, a.nodeURL)
			}
		}(a)
	}
	wg.Wait()
}

// DownloadFile loads the manifest, concurrently retrieves shards from
// their recorded nodes, verifies and reconstructs the plaintext, checks
// the whole-file hash, and writes the result to outputPath (or the
// default downloads directory if empty). quiet suppresses per-shard
// progress bars on the gets. Returns the written path.
func (o *Orchestrator) DownloadFile(ctx context.Context, manifestPath, outputPath string, quiet bool) (string, error) {
	manifest, err := o.vault.Load(manifestPath)
	if err != nil {
		return "", err
	}

	se, err := engine.NewStorageEngine(o.cipher, o.codec, []byte(manifest.EncryptionKey))
	if err != nil {
		return "", err
	}

	type fetched struct {
		index int
		data  []byte
		ok    bool
	}

	records := manifest.ShardMetadata
	results := make([]fetched, 0, len(records))
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.concurrency)

	for idxStr, rec := range records {
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			continue
		}

		wg.Add(1)
		go func(idx int, rec domain.ShardRecord) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			client := blobstore.NewHTTPBlobStore(rec.NodeURL)
			data, ok := client.Get(ctx, rec.ShardIdentifier, quiet)

			mu.Lock()
			results = append(results, fetched{index: idx, data: data, ok: ok})
			mu.Unlock()
		}(idx, rec)
	}
	wg.Wait()

	var successfulShards [][]byte
	var successfulIndices []int
	expectedHashes := make(map[int]string)
	for _, r := range results {
		if r.ok {
			successfulShards = append(successfulShards, r.data)
			successfulIndices = append(successfulIndices, r.index)
			expectedHashes[r.index] = records[strconv.Itoa(r.index)].Hash
		}
	}

	if len(successfulShards) < manifest.KRequired {
		return "", shardmesherrors.ErrInsufficientShards
	}

	plaintext, err := se.VerifyAndDecrypt(successfulShards, successfulIndices, expectedHashes)
	if err != nil {
		return "", err
	}

	if cryptutil.SHA256Hex(plaintext) != manifest.FileHash {
		return "", shardmesherrors.ErrFileIntegrityMismatch
	}

	if outputPath == "" {
		outputPath = filepath.Join(o.downloadDir, manifest.Filename)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, plaintext, 0o644); err != nil {
		return "", err
	}

	return outputPath, nil
}
