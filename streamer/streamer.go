// Package streamer keeps the set of loaded chunks around each observer
// current: a regular per-observer read task computes load and unload
// candidates and enqueues the tasks that act on them, plus the
// RemoteChunkFetcher state machine used when the local world is not
// authoritative.
package streamer

import (
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/metrics"
	"github.com/voxelsync/voxelsync/observer"
	"github.com/voxelsync/voxelsync/scheduler"
	"github.com/voxelsync/voxelsync/storage"
	"github.com/voxelsync/voxelsync/world"
)

const (
	// DefaultLoadRange is the chebyshev radius, in chunks, a streamer
	// keeps loaded around each observer absent an explicit configuration.
	DefaultLoadRange = 4
	// MaxLoad bounds how many build/fetch tasks a single streamer pass
	// enqueues per tick.
	MaxLoad = 64
	// MaxUnload bounds how many retire tasks a single streamer pass
	// enqueues per tick.
	MaxUnload = 64
	// DefaultRetentionWindow is the minimum idle time, absent an explicit
	// configuration, before a chunk becomes eligible for retirement.
	DefaultRetentionWindow = 10 * time.Second
)

// Config configures a ChunkStreamer.
type Config struct {
	// LoadRange is the chebyshev radius, in chunks, kept loaded around
	// each observer. Defaults to DefaultLoadRange.
	LoadRange int32
	Logger    *slog.Logger
	Metrics   *metrics.Metrics

	// Storage is consulted by build tasks before falling back to
	// generation. May be nil, in which case every load always generates.
	Storage storage.WorldStorage

	// Fetcher issues remote get_chunk calls. Setting it puts the
	// streamer in client mode (see New); leave it nil for local builds.
	Fetcher *RemoteChunkFetcher

	// RetentionWindow is the minimum idle time before a chunk outside
	// LoadRange is retired (chunk.retention_seconds). Defaults to
	// DefaultRetentionWindow.
	RetentionWindow time.Duration
}

// ChunkStreamer runs once per tick per observer as a regular read task,
// producing bounded load and unload candidate lists and enqueuing the
// tasks that act on them.
type ChunkStreamer struct {
	loadRange       int32
	log             *slog.Logger
	metrics         *metrics.Metrics
	storage         storage.WorldStorage
	fetcher         *RemoteChunkFetcher
	retentionWindow time.Duration
}

// New returns a ChunkStreamer. If cfg.Fetcher is non-nil the streamer runs
// in client mode, issuing remote fetches for load candidates instead of
// building them locally.
func New(cfg Config) *ChunkStreamer {
	loadRange := cfg.LoadRange
	if loadRange <= 0 {
		loadRange = DefaultLoadRange
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	retentionWindow := cfg.RetentionWindow
	if retentionWindow <= 0 {
		retentionWindow = DefaultRetentionWindow
	}
	return &ChunkStreamer{
		loadRange:       loadRange,
		log:             log,
		metrics:         cfg.Metrics,
		storage:         cfg.Storage,
		fetcher:         cfg.Fetcher,
		retentionWindow: retentionWindow,
	}
}

// Register installs the streamer's per-tick pass for obs in w as a regular
// read task on sched.
func (s *ChunkStreamer) Register(sched *scheduler.TaskScheduler, w *world.World, obs *observer.Observer) {
	sched.AddRegularReadTask(func() { s.step(sched, w, obs) })
}

// step runs one streamer pass: compute candidates, then enqueue the tasks
// that act on them. It is itself a read task, so it must never mutate w
// directly; every effect goes through EnqueueWriteTask or (for load
// candidates) another read task.
func (s *ChunkStreamer) step(sched *scheduler.TaskScheduler, w *world.World, obs *observer.Observer) {
	pos := obs.Position()
	center := chunk.BlockPos{X: int32(pos.X()), Y: int32(pos.Y()), Z: int32(pos.Z())}.Chunk()

	s.metrics.SetChunksLoaded(w.Store().Len())

	loads := s.loadCandidates(w, center)
	unloads := s.unloadCandidates(w, center, pos)

	for _, lp := range loads {
		lp := lp
		if s.fetcher != nil {
			s.fetcher.Request(sched, w, lp)
		} else {
			// A local build/load has no I/O wait worth deferring to the
			// next tick, so it is admitted into the current read phase
			// rather than staged behind EnqueueReadTask.
			sched.SpawnReadTask(func() { s.buildOrLoad(sched, w, lp) })
		}
	}
	for _, up := range unloads {
		up := up
		sched.EnqueueWriteTask(func() { s.retire(w, up) })
	}
}

// loadCandidates returns up to MaxLoad chunk positions within loadRange of
// center that are not currently loaded, nearest first.
func (s *ChunkStreamer) loadCandidates(w *world.World, center chunk.Pos) []chunk.Pos {
	set := newNearestSet(MaxLoad)
	centerMid := center.Midpoint()
	for dx := -s.loadRange; dx <= s.loadRange; dx++ {
		for dy := -s.loadRange; dy <= s.loadRange; dy++ {
			for dz := -s.loadRange; dz <= s.loadRange; dz++ {
				p := chunk.Pos{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				if w.Store().Contains(p) {
					continue
				}
				set.consider(p, squaredDistance(p.Midpoint(), centerMid))
			}
		}
	}
	return set.positions()
}

// unloadCandidates returns up to MaxUnload loaded chunk positions whose
// chebyshev distance from center exceeds loadRange, farthest first,
// ranked by squared Euclidean distance from the observer's exact position.
func (s *ChunkStreamer) unloadCandidates(w *world.World, center chunk.Pos, observerPos mgl64.Vec3) []chunk.Pos {
	set := newFarthestSet(MaxUnload)
	observerExact := [3]float64{observerPos.X(), observerPos.Y(), observerPos.Z()}
	for _, p := range w.Store().Positions() {
		if p.ChebyshevDistance(center) <= s.loadRange {
			continue
		}
		set.consider(p, squaredDistance(p.Midpoint(), observerExact))
	}
	return set.positions()
}

// buildOrLoad is BuildOrLoadTask: a no-op if the chunk already exists
// (raced with another observer's streamer pass), otherwise loads from
// storage or builds fresh, then enqueues the insertion as a write task.
func (s *ChunkStreamer) buildOrLoad(sched *scheduler.TaskScheduler, w *world.World, pos chunk.Pos) {
	if w.Store().Contains(pos) {
		return
	}
	if s.storage != nil {
		blob, found, err := s.storage.LoadChunk(w.Name(), pos)
		if err != nil {
			s.log.Error("streamer: load chunk from storage failed", "world", w.Name(), "pos", pos.String(), "err", err)
		} else if found {
			sched.EnqueueWriteTask(func() {
				if w.Store().Contains(pos) {
					return
				}
				c := chunk.NewLoading(pos, w)
				if err := c.Replace(blob); err != nil {
					s.log.Error("streamer: replace loaded chunk blob failed", "world", w.Name(), "pos", pos.String(), "err", err)
					return
				}
				w.InsertChunkAndUpdate(c)
			})
			return
		}
	}
	built := chunk.NewBuilt(pos, w, w.DaylightBrightness())
	sched.EnqueueWriteTask(func() {
		if w.Store().Contains(pos) {
			return
		}
		w.InsertChunkAndUpdate(built)
	})
}

// retire is RetireTask: removes the chunk at pos if it is currently
// retirable, otherwise leaves it (it is still referenced by a pending
// task).
func (s *ChunkStreamer) retire(w *world.World, pos chunk.Pos) {
	c := w.Store().Get(pos)
	if c == nil || !c.IsRetirable(s.retentionWindow) {
		return
	}
	w.DeleteChunk(pos)
	s.metrics.IncChunksRetired(1)
}
