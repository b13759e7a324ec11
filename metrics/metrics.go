// Package metrics exposes the scheduler and streamer instrumentation as
// Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter/gauge/histogram the scheduler and streamer
// report. A nil *Metrics is safe to use: every method is a no-op, so
// instrumentation can be wired in optionally without guarding every call
// site with a nil check.
type Metrics struct {
	readPhaseSeconds  prometheus.Histogram
	writePhaseSeconds prometheus.Histogram
	tickSkipped       prometheus.Counter
	pendingReadTasks  prometheus.Gauge
	regularReadTasks  prometheus.Gauge
	writeQueueDepth   prometheus.Gauge
	renderQueueDepth  prometheus.Gauge
	ticksPerSecond    prometheus.Gauge
	chunksLoaded      prometheus.Gauge
	chunksRetired     prometheus.Counter
	remoteFetchPolls  prometheus.Counter
}

// New constructs a Metrics bundle and registers it against reg. Passing a
// fresh prometheus.NewRegistry() per test keeps repeated construction in
// unit tests from colliding on the default global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readPhaseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "read_phase_seconds",
			Help:      "Wall-clock duration of the read phase of a tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		writePhaseSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "write_phase_seconds",
			Help:      "Wall-clock duration of the write phase of a tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		tickSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because the previous tick had not finished.",
		}),
		pendingReadTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "pending_read_tasks",
			Help:      "One-shot read tasks staged for the next tick.",
		}),
		regularReadTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "regular_read_tasks",
			Help:      "Regular read tasks re-run on every tick.",
		}),
		writeQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "write_queue_depth",
			Help:      "Write tasks enqueued for the current tick's write phase.",
		}),
		renderQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "render_queue_depth",
			Help:      "Render tasks awaiting a main-thread drain.",
		}),
		ticksPerSecond: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelsync",
			Subsystem: "scheduler",
			Name:      "ticks_per_second",
			Help:      "Reciprocal of the mean tick execution time over the last sample window.",
		}),
		chunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelsync",
			Subsystem: "streamer",
			Name:      "chunks_loaded",
			Help:      "Chunks currently resident across all worlds.",
		}),
		chunksRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelsync",
			Subsystem: "streamer",
			Name:      "chunks_retired_total",
			Help:      "Chunks removed by the retire policy.",
		}),
		remoteFetchPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxelsync",
			Subsystem: "streamer",
			Name:      "remote_fetch_polls_total",
			Help:      "Future polls issued by the remote chunk fetcher.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.readPhaseSeconds, m.writePhaseSeconds, m.tickSkipped,
			m.pendingReadTasks, m.regularReadTasks, m.writeQueueDepth,
			m.renderQueueDepth, m.ticksPerSecond, m.chunksLoaded,
			m.chunksRetired, m.remoteFetchPolls,
		)
	}
	return m
}

func (m *Metrics) ObserveReadPhase(seconds float64) {
	if m == nil {
		return
	}
	m.readPhaseSeconds.Observe(seconds)
}

func (m *Metrics) ObserveWritePhase(seconds float64) {
	if m == nil {
		return
	}
	m.writePhaseSeconds.Observe(seconds)
}

func (m *Metrics) IncTickSkipped() {
	if m == nil {
		return
	}
	m.tickSkipped.Inc()
}

func (m *Metrics) SetPendingReadTasks(n int) {
	if m == nil {
		return
	}
	m.pendingReadTasks.Set(float64(n))
}

func (m *Metrics) SetRegularReadTasks(n int) {
	if m == nil {
		return
	}
	m.regularReadTasks.Set(float64(n))
}

func (m *Metrics) SetWriteQueueDepth(n int) {
	if m == nil {
		return
	}
	m.writeQueueDepth.Set(float64(n))
}

func (m *Metrics) SetRenderQueueDepth(n int) {
	if m == nil {
		return
	}
	m.renderQueueDepth.Set(float64(n))
}

func (m *Metrics) SetTicksPerSecond(tps float64) {
	if m == nil {
		return
	}
	m.ticksPerSecond.Set(tps)
}

func (m *Metrics) SetChunksLoaded(n int) {
	if m == nil {
		return
	}
	m.chunksLoaded.Set(float64(n))
}

func (m *Metrics) IncChunksRetired(n int) {
	if m == nil || n == 0 {
		return
	}
	m.chunksRetired.Add(float64(n))
}

func (m *Metrics) IncRemoteFetchPolls() {
	if m == nil {
		return
	}
	m.remoteFetchPolls.Inc()
}
