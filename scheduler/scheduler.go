// Package scheduler drives the fixed-period tick state machine: a
// read-parallel worker pool, a single-threaded write drain and a
// main-thread-pumped render drain.
package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxelsync/voxelsync/metrics"
)

// defaultTickInterval is the nominal tick period (≈30 ticks/second).
const defaultTickInterval = 33 * time.Millisecond

// Config configures a TaskScheduler. Zero-value fields are filled with
// defaults by New.
type Config struct {
	// NumWorkers is the size of the read-phase worker pool. Defaults to 4.
	NumWorkers int
	// TickInterval is the nominal tick period. Defaults to 33ms.
	TickInterval time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// TaskScheduler is the concurrency centrepiece: it drives ticks at a fixed
// nominal period, fanning read tasks out across a worker pool before
// draining writes serially and leaving render tasks for the caller's main
// thread to pump.
type TaskScheduler struct {
	numWorkers   int
	tickInterval time.Duration
	log          *slog.Logger
	metrics      *metrics.Metrics

	mu          sync.Mutex
	regularRead []ReadFunc
	pendingRead []ReadFunc

	writeMu    sync.Mutex
	writeQueue []WriteFunc

	renderMu    sync.Mutex
	renderQueue []RenderFunc

	// enter is true for the duration of a tick; CompareAndSwap against it
	// is how a tick whose predecessor has not finished gets skipped
	// instead of running concurrently with it.
	enter atomic.Bool

	// readPhaseMu guards the two fields below, which are only non-nil for
	// the duration of an active read phase and let SpawnReadTask hand a
	// same-tick job to the pool currently running runReadPhase.
	readPhaseMu    sync.Mutex
	readPhaseSpawn chan ReadFunc
	readPhaseWG    *sync.WaitGroup

	tps tpsTracker

	tickCount atomic.Uint64
}

// New returns a TaskScheduler ready to have tasks registered on it. Call
// Run to start ticking.
func New(cfg Config) *TaskScheduler {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TaskScheduler{
		numWorkers:   cfg.NumWorkers,
		tickInterval: cfg.TickInterval,
		log:          cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// AddRegularReadTask registers fn to run once per tick for the lifetime of
// the scheduler (e.g. a per-observer streamer pass or a kinematics step).
func (s *TaskScheduler) AddRegularReadTask(fn ReadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regularRead = append(s.regularRead, fn)
}

// EnqueueReadTask stages a one-shot read task for the scheduler's next
// tick (for example a remote fetch re-polling itself because it is not yet
// ready). A read task that wants its follow-up to run in the current tick
// instead must call SpawnReadTask.
func (s *TaskScheduler) EnqueueReadTask(fn ReadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingRead = append(s.pendingRead, fn)
}

// SpawnReadTask admits fn into the read phase currently running on the
// pool, bumping that phase's outstanding-task counter before handing fn
// off so the phase cannot finish until fn has also run. This is the
// in-phase spawn path: a read task that discovers same-tick follow-up work
// (for instance a chunk load that immediately enables a dependent read)
// uses this instead of EnqueueReadTask, which only ever targets the next
// tick. Called outside an active read phase, it falls back to
// EnqueueReadTask.
func (s *TaskScheduler) SpawnReadTask(fn ReadFunc) {
	s.readPhaseMu.Lock()
	wg := s.readPhaseWG
	ch := s.readPhaseSpawn
	s.readPhaseMu.Unlock()
	if wg == nil || ch == nil {
		s.EnqueueReadTask(fn)
		return
	}
	wg.Add(1)
	go func() { ch <- fn }()
}

// EnqueueWriteTask stages fn to run during the current write phase, after
// every write task enqueued before it. Safe to call from any read task.
func (s *TaskScheduler) EnqueueWriteTask(fn WriteFunc) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.writeQueue = append(s.writeQueue, fn)
}

// EnqueueRenderTask stages fn to run the next time HandleRenderTasks is
// called. Safe to call from any read or write task.
func (s *TaskScheduler) EnqueueRenderTask(fn RenderFunc) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.renderQueue = append(s.renderQueue, fn)
}

// HandleRenderTasks drains and runs every currently queued render task. It
// is the caller's responsibility to invoke this from the main thread; the
// scheduler never calls it itself.
func (s *TaskScheduler) HandleRenderTasks() {
	s.renderMu.Lock()
	jobs := s.renderQueue
	s.renderQueue = nil
	s.renderMu.Unlock()
	s.metrics.SetRenderQueueDepth(len(jobs))
	for _, fn := range jobs {
		s.runGuarded(func() { fn() }, "render")
	}
}

// TicksPerSecond returns the most recently sampled smoothed TPS value,
// computed from tick execution time (see tpsTracker).
func (s *TaskScheduler) TicksPerSecond() float64 { return s.tps.Value() }

// Run starts the tick loop and blocks until ctx is cancelled.
func (s *TaskScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-ctx.Done():
			return
		}
	}
}

// Tick runs one Idle->Read->Write->Idle step. If the previous tick has not
// finished, the tick is skipped and logged once.
func (s *TaskScheduler) Tick() {
	if !s.enter.CompareAndSwap(false, true) {
		s.log.Warn("scheduler: previous tick still running, skipping tick")
		s.metrics.IncTickSkipped()
		return
	}
	defer s.enter.Store(false)

	tickStart := time.Now()

	s.mu.Lock()
	active := make([]ReadFunc, 0, len(s.regularRead)+len(s.pendingRead))
	active = append(active, s.regularRead...)
	active = append(active, s.pendingRead...)
	s.pendingRead = nil
	regularCount, pendingCount := len(s.regularRead), len(active)-len(s.regularRead)
	s.mu.Unlock()
	s.metrics.SetRegularReadTasks(regularCount)
	s.metrics.SetPendingReadTasks(pendingCount)

	s.runReadPhase(active)
	readElapsed := time.Since(tickStart)
	s.metrics.ObserveReadPhase(readElapsed.Seconds())

	writeStart := time.Now()
	s.runWritePhase()
	s.metrics.ObserveWritePhase(time.Since(writeStart).Seconds())

	s.tps.sample(time.Since(tickStart), s.log)
	s.metrics.SetTicksPerSecond(s.tps.Value())
	s.tickCount.Add(1)
}

// TickCount returns the number of ticks executed so far, including skipped
// ticks' successors but not the skipped ticks themselves.
func (s *TaskScheduler) TickCount() uint64 { return s.tickCount.Load() }

// runReadPhase fans jobs out across the worker pool, each worker claiming
// the next unclaimed index via an atomic fetch-and-increment, and blocks
// until every job has run, including any spawned mid-phase via
// SpawnReadTask. Read task order is unspecified. Workers are orchestrated
// with an errgroup.Group rather than a bare sync.WaitGroup so the same
// join point could propagate a worker-level error in the future without
// changing runReadPhase's shape; runGuarded already ensures no worker
// goroutine actually returns a non-nil error today.
func (s *TaskScheduler) runReadPhase(jobs []ReadFunc) {
	if len(jobs) == 0 {
		return
	}
	workers := s.numWorkers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var cursor atomic.Int64
	var outstanding sync.WaitGroup
	outstanding.Add(len(jobs))
	spawned := make(chan ReadFunc)

	s.readPhaseMu.Lock()
	s.readPhaseSpawn = spawned
	s.readPhaseWG = &outstanding
	s.readPhaseMu.Unlock()
	defer func() {
		s.readPhaseMu.Lock()
		s.readPhaseSpawn = nil
		s.readPhaseWG = nil
		s.readPhaseMu.Unlock()
	}()

	done := make(chan struct{})
	go func() {
		outstanding.Wait()
		close(done)
	}()

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				if idx := cursor.Add(1) - 1; idx < int64(len(jobs)) {
					job := jobs[idx]
					s.runGuarded(func() { job() }, "read")
					outstanding.Done()
					continue
				}
				select {
				case job := <-spawned:
					s.runGuarded(func() { job() }, "read")
					outstanding.Done()
				case <-done:
					return nil
				}
			}
		})
	}
	_ = g.Wait()
}

// runWritePhase drains the write queue and runs every task serially, in
// enqueue order. It executes on the goroutine that called Tick, which acts
// as the designated "last completing worker": runReadPhase's errgroup join
// guarantees every read-phase worker has already returned by the time this
// runs.
func (s *TaskScheduler) runWritePhase() {
	s.writeMu.Lock()
	jobs := s.writeQueue
	s.writeQueue = nil
	s.writeMu.Unlock()
	s.metrics.SetWriteQueueDepth(len(jobs))
	for _, fn := range jobs {
		job := fn
		s.runGuarded(func() { job() }, "write")
	}
}

// runGuarded runs fn, recovering from and logging any panic so that one
// misbehaving task cannot take down the tick loop.
func (s *TaskScheduler) runGuarded(fn func(), phase string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduler: task panicked", "phase", phase, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
