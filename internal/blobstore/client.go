// Package blobstore implements the client side of the per-node BlobStore
// HTTP contract: heartbeat/put/get/delete, one instance per node URL,
// every operation bounded by a timeout and never raising.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/schollz/progressbar/v3"
)

const (
	heartbeatTimeout = 5 * time.Second
	putTimeout       = 30 * time.Second
	getTimeout       = 30 * time.Second
	deleteTimeout    = 10 * time.Second
)

// BlobStore is the capability the orchestrator distributes shards over.
// No method ever returns a caller-visible error: transport failures are
// reported through the boolean/bytes result instead, matching §4.5.
type BlobStore interface {
	Heartbeat(ctx context.Context) bool
	Put(ctx context.Context, id string, data []byte, quiet bool) bool
	Get(ctx context.Context, id string, quiet bool) ([]byte, bool)
	Delete(ctx context.Context, id string) bool
}

// HTTPBlobStore talks to a single node over the plain HTTP contract in
// spec §6: GET /heartbeat, POST /upload/{id}, GET /download/{id},
// DELETE /delete/{id}.
type HTTPBlobStore struct {
	nodeURL string
	client  *http.Client
}

// NewHTTPBlobStore constructs a client bound to one node's base URL.
func NewHTTPBlobStore(nodeURL string) *HTTPBlobStore {
	return &HTTPBlobStore{
		nodeURL: nodeURL,
		client:  &http.Client{},
	}
}

// NodeURL returns the node this client targets.
func (c *HTTPBlobStore) NodeURL() string {
	return c.nodeURL
}

func (c *HTTPBlobStore) Heartbeat(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, heartbeatTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.nodeURL+"/heartbeat", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debugf("heartbeat to %s failed: %v", c.nodeURL, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *HTTPBlobStore) Put(ctx context.Context, id string, data []byte, quiet bool) bool {
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", id)
	if err != nil {
		return false
	}

	var dst io.Writer = part
	if !quiet {
		bar := progressbar.DefaultBytes(int64(len(data)), fmt.Sprintf("uploading %s", id))
		dst = io.MultiWriter(part, bar)
	}
	if _, err := dst.Write(data); err != nil {
		return false
	}
	if err := writer.Close(); err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL+"/upload/"+id, body)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debugf("put %s to %s failed: %v", id, c.nodeURL, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *HTTPBlobStore) Get(ctx context.Context, id string, quiet bool) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, getTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.nodeURL+"/download/"+id, nil)
	if err != nil {
		return nil, false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debugf("get %s from %s failed: %v", id, c.nodeURL, err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var reader io.Reader = resp.Body
	if !quiet && resp.ContentLength > 0 {
		bar := progressbar.DefaultBytes(resp.ContentLength, fmt.Sprintf("downloading %s", id))
		reader = io.TeeReader(resp.Body, bar)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false
	}

	return data, true
}

func (c *HTTPBlobStore) Delete(ctx context.Context, id string) bool {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.nodeURL+"/delete/"+id, nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debugf("delete %s from %s failed: %v", id, c.nodeURL, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
