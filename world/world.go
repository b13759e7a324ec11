// Package world holds the coordinate-addressed chunk storage for a single
// named world and the neighbour-dirtying semantics chunk insertion must
// observe.
package world

import (
	"log/slog"
	"sync/atomic"

	"github.com/voxelsync/voxelsync/chunk"
)

// World is (name, numeric id, chunk store, daylight brightness). A World
// never destroys itself mid-tick; lifecycle is owned by a Registry.
type World struct {
	name      string
	numericID uint32
	store     *chunk.Store
	daylight  atomic.Uint32 // holds a uint8, widened for atomic support

	log *slog.Logger
}

// New constructs a World. numericID is normally assigned by a Registry at
// registration time rather than chosen by the caller.
func New(name string, numericID uint32, daylight uint8, log *slog.Logger) *World {
	if log == nil {
		log = slog.Default()
	}
	w := &World{
		name:      name,
		numericID: numericID,
		store:     chunk.NewStore(),
		log:       log,
	}
	w.daylight.Store(uint32(daylight))
	return w
}

// Name returns the world's name.
func (w *World) Name() string { return w.name }

// NumericID returns the world's registry-assigned numeric id.
func (w *World) NumericID() uint32 { return w.numericID }

// DaylightBrightness returns the scalar fed into newly built chunks.
// Implements chunk.WorldHandle.
func (w *World) DaylightBrightness() uint8 { return uint8(w.daylight.Load()) }

// SetDaylightBrightness updates the world-wide daylight value consulted by
// future chunk generation.
func (w *World) SetDaylightBrightness(v uint8) { w.daylight.Store(uint32(v)) }

// Store returns the world's chunk store. Callers outside the write phase
// must only use it for reads.
func (w *World) Store() *chunk.Store { return w.store }

// axisNeighbourOffsets are the six axis-aligned chunk-coordinate offsets
// dirtied whenever a chunk is inserted or replaced.
var axisNeighbourOffsets = [6]chunk.Pos{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// InsertChunkAndUpdate installs c, then marks the six axis-neighbours of
// c.Pos() dirty if they are currently loaded. This is the sole legal way to
// add a chunk to a live world; Store.Insert itself is considered internal
// plumbing for the streamer and storage layer.
func (w *World) InsertChunkAndUpdate(c *chunk.Chunk) {
	prev := w.store.Insert(c)
	if prev != nil && w.log != nil {
		w.log.Debug("chunk replaced", "world", w.name, "pos", c.Pos().String())
	}
	for _, off := range axisNeighbourOffsets {
		if n := w.store.Get(c.Pos().Add(off)); n != nil {
			n.MarkDirty()
		}
	}
}

// DeleteChunk removes the chunk at pos unconditionally. Retention policy
// (whether a chunk should be kept around a little longer) is the
// streamer's decision, not the world's.
func (w *World) DeleteChunk(pos chunk.Pos) *chunk.Chunk {
	return w.store.Remove(pos)
}
