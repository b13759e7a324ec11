package chunk

import "fmt"

// Size is the edge length of a chunk in voxels (S in the design notes). It
// is a compile-time constant because the monotonic/dense storage layout,
// the linear index formula and the chunk-coordinate shift all depend on it.
const Size = 32

// sizeLog2 is log2(Size), used for the world-block -> chunk coordinate
// arithmetic right shift.
const sizeLog2 = 5

// sizeMask is Size-1, used for the world-block -> local-block bitmask.
const sizeMask = Size - 1

// Volume is the number of voxels in a chunk (S^3).
const Volume = Size * Size * Size

// Pos is an integer chunk-space coordinate: one unit along an axis spans
// Size voxels of world space.
type Pos struct {
	X, Y, Z int32
}

// String renders the position as "(x, y, z)", matching the teacher's
// ChunkPos formatting convention for log fields.
func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Add returns the component-wise sum of p and o.
func (p Pos) Add(o Pos) Pos {
	return Pos{p.X + o.X, p.Y + o.Y, p.Z + o.Z}
}

// ChebyshevDistance returns max(|dx|, |dz|, |dy|) between p and o, the
// metric the streamer uses to decide load/unload eligibility: it describes
// a cubic region rather than a spherical one, which matches the cube-shaped
// load volume the streamer iterates.
func (p Pos) ChebyshevDistance(o Pos) int32 {
	dx, dy, dz := abs32(p.X-o.X), abs32(p.Y-o.Y), abs32(p.Z-o.Z)
	return max32(dx, max32(dy, dz))
}

// Midpoint returns the world-space coordinate of the geometric centre of
// the chunk at p, used by the streamer to rank load/unload candidates by
// squared Euclidean distance without needing a live Chunk instance.
func (p Pos) Midpoint() [3]float64 {
	const half = Size / 2.0
	return [3]float64{
		float64(p.X)*Size + half,
		float64(p.Y)*Size + half,
		float64(p.Z)*Size + half,
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// BlockPos is an integer world-space block coordinate.
type BlockPos struct {
	X, Y, Z int32
}

// String renders the position as "(x, y, z)".
func (p BlockPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Chunk converts a world-block position into the position of the chunk that
// contains it, using an arithmetic right shift by log2(Size) on each axis
// so that negative coordinates floor toward negative infinity rather than
// toward zero.
func (p BlockPos) Chunk() Pos {
	return Pos{X: p.X >> sizeLog2, Y: p.Y >> sizeLog2, Z: p.Z >> sizeLog2}
}

// Local converts a world-block position into its local coordinate within
// the containing chunk (each component in [0, Size)), using a bitmask
// against Size-1.
func (p BlockPos) Local() LocalPos {
	return LocalPos{X: uint8(p.X & sizeMask), Y: uint8(p.Y & sizeMask), Z: uint8(p.Z & sizeMask)}
}

// LocalPos is a position local to a single chunk, each component in the
// range [0, Size).
type LocalPos struct {
	X, Y, Z uint8
}

// Valid reports whether every component of p lies in [0, Size).
func (p LocalPos) Valid() bool {
	return p.X < Size && p.Y < Size && p.Z < Size
}

// Index returns the linear index of p into a dense S^3 voxel array, using
// the convention linear = x*Size^2 + y*Size + z.
func (p LocalPos) Index() int {
	return int(p.X)*Size*Size + int(p.Y)*Size + int(p.Z)
}
