// Package nodepool tracks the configured storage node URLs and polls
// their health concurrently, preserving configuration order the way
// spec §4.7.1 step 4's tie-break rule requires.
package nodepool

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/shardmesh/shardmesh/internal/blobstore"
)

// Pool is an immutable registry of node URLs and their BlobStore clients.
type Pool struct {
	nodeURLs []string
	clients  []blobstore.BlobStore
}

// NewPool builds a node pool from a list of node URLs, constructing one
// HTTPBlobStore per node. The order is preserved for the lifetime of the
// pool — node_urls is immutable after orchestrator construction (§5).
func NewPool(nodeURLs []string) *Pool {
	clients := make([]blobstore.BlobStore, len(nodeURLs))
	for i, url := range nodeURLs {
		clients[i] = blobstore.NewHTTPBlobStore(url)
		log.Infof("registered storage node: %s", url)
	}
	return &Pool{nodeURLs: nodeURLs, clients: clients}
}

// NodeURLs returns the configured node URLs in order.
func (p *Pool) NodeURLs() []string {
	urls := make([]string, len(p.nodeURLs))
	copy(urls, p.nodeURLs)
	return urls
}

// Clients returns the BlobStore clients in node_urls order.
func (p *Pool) Clients() []blobstore.BlobStore {
	return p.clients
}

// PollHealthy concurrently heartbeats every configured node and returns
// the sublist of (url, client) pairs whose heartbeat succeeded, preserving
// original configuration order.
func (p *Pool) PollHealthy(ctx context.Context) (urls []string, clients []blobstore.BlobStore) {
	results := make([]bool, len(p.clients))

	var wg sync.WaitGroup
	for i, client := range p.clients {
		wg.Add(1)
		go func(i int, client blobstore.BlobStore) {
			defer wg.Done()
			results[i] = client.Heartbeat(ctx)
		}(i, client)
	}
	wg.Wait()

	for i, ok := range results {
		if ok {
			urls = append(urls, p.nodeURLs[i])
			clients = append(clients, p.clients[i])
		}
	}
	return urls, clients
}

// CheckHealth polls a single node by URL, for the public check_node_health
// operation. Returns false if the URL is not in the pool.
func (p *Pool) CheckHealth(ctx context.Context, nodeURL string) bool {
	for i, url := range p.nodeURLs {
		if url == nodeURL {
			return p.clients[i].Heartbeat(ctx)
		}
	}
	return false
}
