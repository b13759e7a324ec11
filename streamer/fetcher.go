package streamer

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/metrics"
	"github.com/voxelsync/voxelsync/rpcauthority"
	"github.com/voxelsync/voxelsync/scheduler"
	"github.com/voxelsync/voxelsync/world"
)

// pollTimeout bounds how long a single poll of an in-flight future blocks.
const pollTimeout = 10 * time.Millisecond

// RemoteChunkFetcher issues an asynchronous get_chunk request and polls
// for its completion across as many ticks as needed, used when the local
// world is not authoritative.
type RemoteChunkFetcher struct {
	client  *rpcauthority.Client
	worldID uint32
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewRemoteChunkFetcher returns a fetcher that issues requests against
// client, tagging them with worldID.
func NewRemoteChunkFetcher(client *rpcauthority.Client, worldID uint32, log *slog.Logger, m *metrics.Metrics) *RemoteChunkFetcher {
	if log == nil {
		log = slog.Default()
	}
	return &RemoteChunkFetcher{client: client, worldID: worldID, log: log, metrics: m}
}

// Request inserts a placeholder Loading chunk at pos (as a write task) and
// launches an asynchronous fetch, then schedules polling of the resulting
// future.
func (f *RemoteChunkFetcher) Request(sched *scheduler.TaskScheduler, w *world.World, pos chunk.Pos) {
	if w.Store().Contains(pos) {
		return
	}
	sched.EnqueueWriteTask(func() {
		if w.Store().Contains(pos) {
			return
		}
		placeholder := chunk.NewLoading(pos, w)
		placeholder.Acquire()
		w.InsertChunkAndUpdate(placeholder)

		reqID := uuid.New()
		future := f.client.RequestChunk(f.worldID, pos)
		f.log.Debug("streamer: remote chunk fetch issued", "request_id", reqID, "world", w.Name(), "pos", pos.String())
		sched.EnqueueReadTask(func() { f.poll(sched, w, pos, reqID, future) })
	})
}

// poll checks future with a short timeout. If it is not yet ready, poll
// re-enqueues itself for the next tick; there is no hard deadline. On
// success it enqueues a write task that installs the blob; on failure the
// placeholder's reference is released and it is left Loading until the
// streamer retires it by distance. reqID correlates every log line for a
// single fetch across however many ticks it takes to resolve.
func (f *RemoteChunkFetcher) poll(sched *scheduler.TaskScheduler, w *world.World, pos chunk.Pos, reqID uuid.UUID, future *rpcauthority.ChunkFuture) {
	f.metrics.IncRemoteFetchPolls()
	blob, ready, err := future.Poll(pollTimeout)
	if !ready {
		sched.EnqueueReadTask(func() { f.poll(sched, w, pos, reqID, future) })
		return
	}
	if err != nil {
		f.log.Warn("streamer: remote chunk fetch failed, chunk remains loading", "request_id", reqID, "world", w.Name(), "pos", pos.String(), "err", err)
		if c := w.Store().Get(pos); c != nil {
			c.Release()
		}
		return
	}
	sched.EnqueueWriteTask(func() {
		c := w.Store().Get(pos)
		if c == nil {
			// Placeholder was retired before the fetch completed; drop
			// the result silently.
			return
		}
		defer c.Release()
		if err := c.Replace(blob); err != nil {
			f.log.Error("streamer: replace fetched chunk blob failed", "request_id", reqID, "world", w.Name(), "pos", pos.String(), "err", err)
		}
	})
}
