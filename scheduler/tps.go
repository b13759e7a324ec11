package scheduler

import (
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

const (
	tpsSampleSize       = 20
	tpsWarningThreshold = 25.0 // ticks per second below which we warn (nominal rate is 30 TPS at a 33ms tick)
)

// tpsTracker samples tick durations and exposes a smoothed ticks-per-second
// reading, mirroring the world ticker's TPS sampling/averaging idiom. The
// reading is the reciprocal of the mean tick execution time over the last
// window, i.e. the rate ticks could sustain, not the rate the ticker fires.
type tpsTracker struct {
	bits atomic.Uint64

	durationSum time.Duration
	samples     int
	warned      bool
}

func (t *tpsTracker) sample(d time.Duration, log *slog.Logger) {
	if d <= 0 {
		return
	}
	t.durationSum += d
	t.samples++
	if t.samples < tpsSampleSize {
		return
	}
	avg := t.durationSum / time.Duration(t.samples)
	t.durationSum, t.samples = 0, 0
	if avg <= 0 {
		return
	}
	tps := 1.0 / avg.Seconds()
	t.bits.Store(math.Float64bits(tps))
	if tps < tpsWarningThreshold {
		if !t.warned && log != nil {
			log.Warn("scheduler TPS dropped below threshold", "tps", tps)
			t.warned = true
		}
	} else {
		t.warned = false
	}
}

// Value returns the most recently computed ticks-per-second value, or 0 if
// no full sample window has elapsed yet.
func (t *tpsTracker) Value() float64 {
	return math.Float64frombits(t.bits.Load())
}
