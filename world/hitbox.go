package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/voxelsync/voxelsync/chunk"
)

// Range is a continuous axis-aligned query volume in world-block space.
type Range struct {
	Min, Max mgl64.Vec3
}

// Hitbox is an axis-aligned unit cube anchored at the integer coordinate of
// a non-air voxel.
type Hitbox struct {
	Min, Max mgl64.Vec3
}

// HitboxesIn returns the unit-cube hitbox of every non-air voxel whose
// integer coordinate lies within r and whose containing chunk is loaded.
// Unloaded chunks contribute nothing, so a collision query never blocks on
// chunk I/O; callers that need guaranteed coverage must ensure the range is
// already streamed in.
func (w *World) HitboxesIn(r Range) []Hitbox {
	minX, minY, minZ := int32(math.Floor(r.Min.X())), int32(math.Floor(r.Min.Y())), int32(math.Floor(r.Min.Z()))
	maxX, maxY, maxZ := int32(math.Ceil(r.Max.X())), int32(math.Ceil(r.Max.Y())), int32(math.Ceil(r.Max.Z()))

	var out []Hitbox
	var cached chunk.Pos
	var cachedChunk *chunk.Chunk
	haveCached := false

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				if float64(x) < r.Min.X() || float64(x) > r.Max.X() ||
					float64(y) < r.Min.Y() || float64(y) > r.Max.Y() ||
					float64(z) < r.Min.Z() || float64(z) > r.Max.Z() {
					continue
				}
				bp := chunk.BlockPos{X: x, Y: y, Z: z}
				cp := bp.Chunk()
				if !haveCached || cp != cached {
					cachedChunk = w.store.Get(cp)
					cached = cp
					haveCached = true
				}
				if cachedChunk == nil {
					continue
				}
				v := cachedChunk.Get(bp.Local())
				if v.IsAir() {
					continue
				}
				out = append(out, Hitbox{
					Min: mgl64.Vec3{float64(x), float64(y), float64(z)},
					Max: mgl64.Vec3{float64(x) + 1, float64(y) + 1, float64(z) + 1},
				})
			}
		}
	}
	return out
}
