package world

import (
	"log/slog"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nilWriter{}, nil))
}

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestInsertChunkAndUpdateDirtiesAxisNeighbours(t *testing.T) {
	w := New("overworld", 0, 15, discardLogger())
	center := chunk.Pos{X: 0, Y: 0, Z: 0}
	neighbour := chunk.Pos{X: 1, Y: 0, Z: 0}
	farAway := chunk.Pos{X: 5, Y: 0, Z: 0}

	n := chunk.NewBuilt(neighbour, w, 15)
	n.ClearDirty()
	far := chunk.NewBuilt(farAway, w, 15)
	far.ClearDirty()
	w.store.Insert(n)
	w.store.Insert(far)

	w.InsertChunkAndUpdate(chunk.NewBuilt(center, w, 15))

	if !n.Dirty() {
		t.Fatalf("axis neighbour should have been marked dirty")
	}
	if far.Dirty() {
		t.Fatalf("non-adjacent chunk should not have been marked dirty")
	}
}

func TestInsertChunkAndUpdateReplacesExisting(t *testing.T) {
	w := New("overworld", 0, 15, discardLogger())
	pos := chunk.Pos{X: 0, Y: 0, Z: 0}
	first := chunk.NewBuilt(pos, w, 15)
	w.InsertChunkAndUpdate(first)
	second := chunk.NewBuilt(pos, w, 15)
	w.InsertChunkAndUpdate(second)

	if got := w.store.Get(pos); got != second {
		t.Fatalf("expected the later insertion to win at an equal coordinate")
	}
}

func TestDeleteChunkRemovesUnconditionally(t *testing.T) {
	w := New("overworld", 0, 15, discardLogger())
	pos := chunk.Pos{X: 2, Y: 2, Z: 2}
	c := chunk.NewBuilt(pos, w, 15)
	c.Acquire()
	w.InsertChunkAndUpdate(c)

	removed := w.DeleteChunk(pos)
	if removed != c {
		t.Fatalf("DeleteChunk should return the removed chunk regardless of refcount")
	}
	if w.store.Contains(pos) {
		t.Fatalf("chunk should no longer be in the store")
	}
}

func TestHitboxesInSkipsUnloadedChunksAndAirVoxels(t *testing.T) {
	w := New("overworld", 0, 15, discardLogger())
	pos := chunk.Pos{X: 0, Y: 0, Z: 0}
	c := chunk.NewBuilt(pos, w, 15)
	if err := c.Set(chunk.LocalPos{X: 1, Y: 1, Z: 1}, voxel.New(1, 0, 0)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	w.InsertChunkAndUpdate(c)

	boxes := w.HitboxesIn(Range{
		Min: mgl64.Vec3{0, 0, 0},
		Max: mgl64.Vec3{float64(chunk.Size - 1), float64(chunk.Size - 1), float64(chunk.Size - 1)},
	})
	if len(boxes) != 1 {
		t.Fatalf("got %d hitboxes, want 1", len(boxes))
	}
	if boxes[0].Min != (mgl64.Vec3{1, 1, 1}) {
		t.Fatalf("got hitbox min %v, want (1,1,1)", boxes[0].Min)
	}

	unloadedRange := Range{
		Min: mgl64.Vec3{float64(chunk.Size * 3), 0, 0},
		Max: mgl64.Vec3{float64(chunk.Size*3 + 2), 2, 2},
	}
	if boxes := w.HitboxesIn(unloadedRange); len(boxes) != 0 {
		t.Fatalf("got %d hitboxes from an unloaded region, want 0", len(boxes))
	}
}

func TestHitboxesInExcludesIntegersOutsideAFractionalRange(t *testing.T) {
	w := New("overworld", 0, 15, discardLogger())
	pos := chunk.Pos{X: 0, Y: 0, Z: 0}
	c := chunk.NewBuilt(pos, w, 15)
	for _, x := range []uint8{0, 1, 2, 3} {
		if err := c.Set(chunk.LocalPos{X: x, Y: 0, Z: 0}, voxel.New(1, 0, 0)); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	w.InsertChunkAndUpdate(c)

	boxes := w.HitboxesIn(Range{
		Min: mgl64.Vec3{0.5, 0, 0},
		Max: mgl64.Vec3{2.5, 0, 0},
	})
	if len(boxes) != 2 {
		t.Fatalf("got %d hitboxes, want 2 (x=1 and x=2 only)", len(boxes))
	}
	for _, b := range boxes {
		if b.Min.X() == 0 || b.Min.X() == 3 {
			t.Fatalf("got hitbox at x=%v, which lies outside [0.5,2.5]", b.Min.X())
		}
	}
}

func TestRegistryAssignsMonotonicIDs(t *testing.T) {
	r := NewRegistry(discardLogger())
	overworld, err := r.Register("overworld", 15)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	nether, err := r.Register("nether", 7)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if overworld.NumericID() != 0 || nether.NumericID() != 1 {
		t.Fatalf("got ids %d, %d, want 0, 1", overworld.NumericID(), nether.NumericID())
	}
	if r.ByName("overworld") != overworld {
		t.Fatalf("ByName lookup mismatch")
	}
	if r.ByID(1) != nether {
		t.Fatalf("ByID lookup mismatch")
	}
	if _, err := r.Register("overworld", 15); err == nil {
		t.Fatalf("expected an error registering a duplicate name")
	}
}
