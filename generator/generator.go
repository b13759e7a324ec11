// Package generator provides terrain generators implementing
// chunk.Generator: a flat generator matching the built-in default, and a
// deterministic hills generator driven by a hashed-coordinate value noise.
package generator

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

// Flat fills every voxel below a fixed height with a solid block id and
// everything above with air.
type Flat struct {
	GroundHeight int32
	SolidID      uint16
}

// Generate implements chunk.Generator.
func (f Flat) Generate(pos chunk.Pos, out *chunk.Chunk, daylight uint8) {
	base := pos.Y * chunk.Size
	if base+chunk.Size <= f.GroundHeight {
		out.Replace([]voxel.Data{voxel.New(f.SolidID, 0, 0)})
		return
	}
	if base >= f.GroundHeight {
		out.Replace([]voxel.Data{voxel.New(voxel.Air, daylight, 0)})
		return
	}
	blob := make([]voxel.Data, chunk.Volume)
	for x := 0; x < chunk.Size; x++ {
		for y := 0; y < chunk.Size; y++ {
			worldY := base + int32(y)
			var v voxel.Data
			if worldY < f.GroundHeight {
				v = voxel.New(f.SolidID, 0, 0)
			} else {
				v = voxel.New(voxel.Air, daylight, 0)
			}
			for z := 0; z < chunk.Size; z++ {
				blob[chunk.LocalPos{X: uint8(x), Y: uint8(y), Z: uint8(z)}.Index()] = v
			}
		}
	}
	out.Replace(blob)
}

// Hills is a deterministic terrain generator: column height is a hashed
// value-noise function of its (x, z) world-block coordinate, seeded so
// that the same world always regenerates the same terrain.
type Hills struct {
	Seed       uint64
	BaseHeight int32
	Amplitude  int32
	SolidID    uint16
	SurfaceID  uint16
}

// Generate implements chunk.Generator.
func (h Hills) Generate(pos chunk.Pos, out *chunk.Chunk, daylight uint8) {
	blob := make([]voxel.Data, chunk.Volume)
	baseY := pos.Y * chunk.Size
	for x := 0; x < chunk.Size; x++ {
		worldX := pos.X*chunk.Size + int32(x)
		for z := 0; z < chunk.Size; z++ {
			worldZ := pos.Z*chunk.Size + int32(z)
			height := h.columnHeight(worldX, worldZ)
			for y := 0; y < chunk.Size; y++ {
				worldY := baseY + int32(y)
				var v voxel.Data
				switch {
				case worldY < height-1:
					v = voxel.New(h.SolidID, 0, 0)
				case worldY < height:
					v = voxel.New(h.SurfaceID, 0, 0)
				default:
					v = voxel.New(voxel.Air, daylight, 0)
				}
				blob[chunk.LocalPos{X: uint8(x), Y: uint8(y), Z: uint8(z)}.Index()] = v
			}
		}
	}
	out.Replace(blob)
}

// columnHeight hashes (seed, x, z) with xxhash to derive a value in
// [baseHeight-amplitude, baseHeight+amplitude], then smooths it against
// its four axis-adjacent columns to avoid single-voxel spikes.
func (h Hills) columnHeight(x, z int32) int32 {
	center := h.rawHeight(x, z)
	sum := center*2 + h.rawHeight(x+1, z) + h.rawHeight(x-1, z) + h.rawHeight(x, z+1) + h.rawHeight(x, z-1)
	return sum / 6
}

func (h Hills) rawHeight(x, z int32) int32 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.Seed)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(x))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(z))
	sum := xxhash.Sum64(buf[:16])
	frac := float64(sum%10000) / 10000.0
	return h.BaseHeight + int32(math.Round((frac*2-1)*float64(h.Amplitude)))
}
