package rpcauthority

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

// ChunkFuture is the handle a caller polls until a requested chunk arrives
// or the request fails.
type ChunkFuture struct {
	done chan struct{}
	blob []voxel.Data
	err  error
}

// Poll blocks for up to timeout waiting for the future to settle. ready is
// false on timeout, in which case the caller should poll again later;
// there is no hard deadline on how long a future may remain unready.
func (f *ChunkFuture) Poll(timeout time.Duration) (blob []voxel.Data, ready bool, err error) {
	select {
	case <-f.done:
		return f.blob, true, f.err
	case <-time.After(timeout):
		return nil, false, nil
	}
}

type dispatchJob struct {
	worldID uint32
	pos     chunk.Pos
	future  *ChunkFuture
}

// Client is a get_chunk-capable RPC client consumed by the
// streamer's RemoteChunkFetcher. Every request is funnelled through a
// single dispatch goroutine, which is the synchronisation point that keeps
// outgoing requests launched in the order they were issued even when
// multiple read-phase workers call RequestChunk concurrently.
type Client struct {
	baseURL string
	http    *http.Client
	jobs    chan dispatchJob
	log     *slog.Logger
}

// NewClient returns a Client targeting baseURL (e.g. "http://authority:9000")
// and starts its dispatch loop. httpClient defaults to a client with a 10s
// timeout if nil.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{baseURL: baseURL, http: httpClient, jobs: make(chan dispatchJob, 256), log: log}
	go c.dispatchLoop()
	return c
}

func (c *Client) dispatchLoop() {
	for job := range c.jobs {
		c.send(job)
	}
}

func (c *Client) send(job dispatchJob) {
	defer close(job.future.done)
	url := fmt.Sprintf("%s/api/v1/worlds/%d/chunks/%d/%d/%d", c.baseURL, job.worldID, job.pos.X, job.pos.Y, job.pos.Z)
	resp, err := c.http.Get(url)
	if err != nil {
		job.future.err = fmt.Errorf("rpcauthority: get_chunk %d/%s: %w", job.worldID, job.pos, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		job.future.err = fmt.Errorf("rpcauthority: get_chunk %d/%s: status %d", job.worldID, job.pos, resp.StatusCode)
		return
	}
	var body chunkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		job.future.err = fmt.Errorf("rpcauthority: decode get_chunk response: %w", err)
		return
	}
	job.future.blob = blobFromWire(body.Blob)
}

// RequestChunk enqueues an asynchronous get_chunk call for (worldID, pos)
// and returns immediately with a future to poll.
func (c *Client) RequestChunk(worldID uint32, pos chunk.Pos) *ChunkFuture {
	f := &ChunkFuture{done: make(chan struct{})}
	c.jobs <- dispatchJob{worldID: worldID, pos: pos, future: f}
	return f
}

// AvailableWorldIDs calls get_available_world_ids synchronously.
func (c *Client) AvailableWorldIDs() ([]uint32, error) {
	resp, err := c.http.Get(c.baseURL + "/api/v1/worlds/")
	if err != nil {
		return nil, fmt.Errorf("rpcauthority: get_available_world_ids: %w", err)
	}
	defer resp.Body.Close()
	var body worldsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("rpcauthority: decode get_available_world_ids response: %w", err)
	}
	return body.WorldIDs, nil
}

// WorldInfo calls get_world_info synchronously.
func (c *Client) WorldInfo(worldID uint32) (map[string]string, error) {
	resp, err := c.http.Get(fmt.Sprintf("%s/api/v1/worlds/%d/info", c.baseURL, worldID))
	if err != nil {
		return nil, fmt.Errorf("rpcauthority: get_world_info %d: %w", worldID, err)
	}
	defer resp.Body.Close()
	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("rpcauthority: decode get_world_info response: %w", err)
	}
	return info, nil
}

// PickBlock calls pick_block; the authority queues a write task and does
// not return a value.
func (c *Client) PickBlock(worldID uint32, pos chunk.BlockPos) error {
	body, _ := json.Marshal(pickBlockRequest{X: pos.X, Y: pos.Y, Z: pos.Z})
	resp, err := c.http.Post(
		fmt.Sprintf("%s/api/v1/worlds/%d/pick-block", c.baseURL, worldID),
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("rpcauthority: pick_block %d/%s: %w", worldID, pos, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("rpcauthority: pick_block %d/%s: status %d", worldID, pos, resp.StatusCode)
	}
	return nil
}
