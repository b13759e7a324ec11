package chunk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/voxelsync/voxelsync/voxel"
)

// State is the lifecycle state of a Chunk.
type State uint8

const (
	// Ready chunks expose their real content for reads and writes.
	Ready State = iota
	// Loading chunks are placeholders inserted while their content is
	// awaited from a remote authority. Reads return air; writes are
	// rejected.
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "ready"
}

// WorldHandle is the narrow, read-only view a Chunk holds of its owning
// world. It exists so a Chunk never needs a mutable or owning reference back
// to the World that contains it, eliminating the reference cycle a naive
// back-pointer would create (see design notes on Chunk/World cycles).
type WorldHandle interface {
	// DaylightBrightness returns the world-wide daylight brightness fed
	// into newly built chunks.
	DaylightBrightness() uint8
}

// Generator fills a freshly constructed chunk with voxel content. At most
// one Generator may be registered on a Chunk's construction path; see
// RegisterGenerator.
type Generator interface {
	Generate(pos Pos, out *Chunk, daylight uint8)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(pos Pos, out *Chunk, daylight uint8)

// Generate calls f.
func (f GeneratorFunc) Generate(pos Pos, out *Chunk, daylight uint8) { f(pos, out, daylight) }

// builtinGenerator fills every voxel with (id=0, brightness=daylight,
// state=0), used when no generator has been registered.
type builtinGenerator struct{}

func (builtinGenerator) Generate(_ Pos, out *Chunk, daylight uint8) {
	out.setMonotonic(voxel.New(voxel.Air, daylight, 0))
}

var (
	generatorMu  sync.Mutex
	generator    Generator = builtinGenerator{}
	generatorSet bool
)

// RegisterGenerator installs the terrain generator used by NewBuilt. Only
// the first registration takes effect; subsequent calls are dropped with a
// warning logged to log (if non-nil), matching the "at most one generator"
// contract of the terrain-generator plug-in boundary.
func RegisterGenerator(g Generator, log *slog.Logger) {
	generatorMu.Lock()
	defer generatorMu.Unlock()
	if generatorSet {
		if log != nil {
			log.Warn("terrain generator already registered, ignoring additional registration")
		}
		return
	}
	if g == nil {
		return
	}
	generator = g
	generatorSet = true
}

// activeGenerator returns the currently registered generator, or the
// built-in flat-air generator if none has been registered.
func activeGenerator() Generator {
	generatorMu.Lock()
	defer generatorMu.Unlock()
	return generator
}

// storage is implemented by monotonicStorage and denseStorage.
type storage interface {
	get(p LocalPos) voxel.Data
	// set mutates in place when possible; it returns a denseStorage when
	// the monotonic representation can no longer hold the write.
	set(p LocalPos, v voxel.Data) storage
	export() []voxel.Data
	monotonicValue() (voxel.Data, bool)
}

type monotonicStorage struct {
	value voxel.Data
}

func (m monotonicStorage) get(LocalPos) voxel.Data { return m.value }

func (m monotonicStorage) set(p LocalPos, v voxel.Data) storage {
	if v == m.value {
		// Open question (spec.md §9) resolved: writes of the same value as
		// the existing monotonic fill remain monotonic. Only a
		// *differentiated* write forces dense materialisation. Filling a
		// chunk cell by cell with a value other than its current fill
		// therefore goes dense on the first write and stays dense (and
		// exports a full-length blob) until Compact is called.
		return m
	}
	d := newDenseFrom(m.value)
	return d.set(p, v)
}

func (m monotonicStorage) export() []voxel.Data { return []voxel.Data{m.value} }

func (m monotonicStorage) monotonicValue() (voxel.Data, bool) { return m.value, true }

type denseStorage struct {
	cells [Volume]voxel.Data
}

func newDenseFrom(fill voxel.Data) *denseStorage {
	d := &denseStorage{}
	for i := range d.cells {
		d.cells[i] = fill
	}
	return d
}

func (d *denseStorage) get(p LocalPos) voxel.Data { return d.cells[p.Index()] }

func (d *denseStorage) set(p LocalPos, v voxel.Data) storage {
	d.cells[p.Index()] = v
	return d
}

func (d *denseStorage) export() []voxel.Data {
	out := make([]voxel.Data, Volume)
	copy(out, d.cells[:])
	return out
}

// monotonicValue reports whether every cell in the dense array holds the
// same value; dense->monotonic compaction is optional per spec.md §3 and is
// only performed explicitly via Compact, never implicitly on read.
func (d *denseStorage) monotonicValue() (voxel.Data, bool) {
	first := d.cells[0]
	for _, c := range d.cells[1:] {
		if c != first {
			return 0, false
		}
	}
	return first, true
}

// Chunk is a fixed Size^3 voxel cube: the atomic unit of loading,
// generation and network transfer.
type Chunk struct {
	mu sync.RWMutex

	pos   Pos
	world WorldHandle

	store storage
	state State
	dirty bool

	// heightmap caches the highest non-air local Y per column, mirroring
	// the teacher's HighestBlock/HighestLightBlocker column queries. -1
	// means no solid voxel in the column. Invalidated on any write.
	heightmap      [Size * Size]int16
	heightmapValid bool

	// biome is a per-column accelerator reserved for a future biome
	// module. No generator in this module sets it, so it stays zero unless
	// SetBiome is called, and no spec-mandated operation reads it.
	biome [Size * Size]uint8

	// hash caches ContentHash's xxhash digest of the exported blob,
	// recomputed lazily after the content changes.
	hash      uint64
	hashValid bool

	refcount  atomic.Int64
	lastTouch atomic.Int64 // unix nanoseconds
}

// ErrLoading is returned by Set when the chunk has not yet received its
// content from a remote authority.
var ErrLoading = errors.New("chunk: write rejected, chunk is still loading")

// ErrInvalidBlobLength is returned by Replace when the blob is neither
// length 1 (monotonic) nor Volume (dense).
var ErrInvalidBlobLength = fmt.Errorf("chunk: blob length must be 1 or %d", Volume)

// NewBuilt invokes the registered terrain generator to fill a new Ready
// chunk at pos.
func NewBuilt(pos Pos, world WorldHandle, daylight uint8) *Chunk {
	c := &Chunk{pos: pos, world: world, state: Ready, dirty: true}
	c.store = monotonicStorage{value: voxel.AirData}
	activeGenerator().Generate(pos, c, daylight)
	c.touchNow()
	return c
}

// NewLoading returns a placeholder chunk in the Loading state, filled with
// monotonic air, awaiting content from a remote authority.
func NewLoading(pos Pos, world WorldHandle) *Chunk {
	c := &Chunk{
		pos:   pos,
		world: world,
		state: Loading,
		dirty: true,
		store: monotonicStorage{value: voxel.AirData},
	}
	c.touchNow()
	return c
}

// Pos returns the chunk's position.
func (c *Chunk) Pos() Pos { return c.pos }

// World returns the non-owning handle to the chunk's world.
func (c *Chunk) World() WorldHandle { return c.world }

// State returns the chunk's current lifecycle state.
func (c *Chunk) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dirty reports whether the chunk has unconsumed content or neighbour
// changes pending for renderers.
func (c *Chunk) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// ClearDirty resets the dirty bit, typically called by a render task once
// it has consumed the chunk's current content.
func (c *Chunk) ClearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}

// MarkDirty sets the dirty bit directly, used by World when a neighbouring
// chunk insertion requires this chunk's renderer state to be refreshed.
func (c *Chunk) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
}

// Get returns the voxel at local coordinate pos. pos must satisfy
// pos.Valid(); Get panics otherwise, since an out-of-range local coordinate
// is always a caller bug, not a reachable runtime condition.
func (c *Chunk) Get(pos LocalPos) voxel.Data {
	if !pos.Valid() {
		panic(fmt.Sprintf("chunk: local position out of range: %+v", pos))
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == Loading {
		return voxel.AirData
	}
	return c.store.get(pos)
}

// Set writes v at local coordinate pos, materialising dense storage first
// if the chunk is currently monotonic and the write differs from the fill
// value. Set returns ErrLoading if the chunk has not yet received content.
func (c *Chunk) Set(pos LocalPos, v voxel.Data) error {
	if !pos.Valid() {
		panic(fmt.Sprintf("chunk: local position out of range: %+v", pos))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		return ErrLoading
	}
	c.store = c.store.set(pos, v)
	c.dirty = true
	c.heightmapValid = false
	c.hashValid = false
	return nil
}

func (c *Chunk) setMonotonic(v voxel.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = monotonicStorage{value: v}
	c.dirty = true
	c.heightmapValid = false
	c.hashValid = false
}

// Replace installs blob as the chunk's content and transitions it to Ready.
// blob must have length 1 (monotonic) or Volume (dense); any other length
// returns ErrInvalidBlobLength and leaves the chunk unmodified.
func (c *Chunk) Replace(blob []voxel.Data) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch len(blob) {
	case 1:
		c.store = monotonicStorage{value: blob[0]}
	case Volume:
		d := &denseStorage{}
		copy(d.cells[:], blob)
		c.store = d
	default:
		return ErrInvalidBlobLength
	}
	c.state = Ready
	c.dirty = true
	c.heightmapValid = false
	c.hashValid = false
	return nil
}

// Export returns the chunk's content as a wire blob: length 1 if the
// storage is currently monotonic, otherwise length Volume.
func (c *Chunk) Export() []voxel.Data {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.export()
}

// Compact attempts to compress dense storage that happens to hold a single
// repeated value back down to monotonic storage. Unlike the
// monotonic-to-dense transition, this direction is optional (spec.md §3)
// and is never performed implicitly; callers invoke it explicitly, for
// example before a chunk is saved or exported over the wire.
func (c *Chunk) Compact() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.store.monotonicValue(); ok {
		c.store = monotonicStorage{value: v}
	}
}

// MarkRequest updates the chunk's last-touch timestamp, keeping it outside
// the retention window for retirement purposes.
func (c *Chunk) MarkRequest() {
	c.touchNow()
}

func (c *Chunk) touchNow() {
	c.lastTouch.Store(time.Now().UnixNano())
}

// Acquire increments the chunk's reference count. Callers that hold a
// reference across tick boundaries (for example a pending write task) must
// pair every Acquire with a Release.
func (c *Chunk) Acquire() {
	c.refcount.Add(1)
}

// Release decrements the chunk's reference count.
func (c *Chunk) Release() {
	c.refcount.Add(-1)
}

// Refcount returns the current reference count.
func (c *Chunk) Refcount() int64 {
	return c.refcount.Load()
}

// IsRetirable reports whether the chunk may be removed by the retire
// policy: its reference count is zero and it has not been touched within
// window (chunk.retention_seconds).
func (c *Chunk) IsRetirable(window time.Duration) bool {
	if c.refcount.Load() != 0 {
		return false
	}
	last := time.Unix(0, c.lastTouch.Load())
	return time.Since(last) >= window
}

// Midpoint returns the world-space coordinate of the chunk's geometric
// centre, used by the streamer to rank load/unload candidates by squared
// Euclidean distance.
func (c *Chunk) Midpoint() [3]float64 {
	return c.pos.Midpoint()
}

// HighestBlock returns the local Y of the highest non-air voxel in column
// (x, z), or -1 if the column is entirely air. The result is cached until
// the next write.
func (c *Chunk) HighestBlock(x, z uint8) int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.heightmapValid {
		c.rebuildHeightmapLocked()
	}
	return c.heightmap[int(x)*Size+int(z)]
}

func (c *Chunk) rebuildHeightmapLocked() {
	for x := 0; x < Size; x++ {
		for z := 0; z < Size; z++ {
			highest := int16(-1)
			for y := Size - 1; y >= 0; y-- {
				if !c.store.get(LocalPos{X: uint8(x), Y: uint8(y), Z: uint8(z)}).IsAir() {
					highest = int16(y)
					break
				}
			}
			c.heightmap[x*Size+z] = highest
		}
	}
	c.heightmapValid = true
}

// Biome returns the per-column biome accelerator value at (x, z).
func (c *Chunk) Biome(x, z uint8) uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.biome[int(x)*Size+int(z)]
}

// SetBiome sets the per-column biome accelerator value at (x, z). It is
// opaque metadata: no spec-mandated operation reads it back.
func (c *Chunk) SetBiome(x, z uint8, biome uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.biome[int(x)*Size+int(z)] = biome
}

// ContentHash returns an xxhash digest of the chunk's exported blob,
// cached until the next write. Callers use it to skip redundant network
// sends for chunks whose content has not actually changed since the
// caller's last observation.
func (c *Chunk) ContentHash() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hashValid {
		return c.hash
	}
	blob := c.store.export()
	buf := make([]byte, len(blob)*4)
	for i, v := range blob {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	c.hash = xxhash.Sum64(buf)
	c.hashValid = true
	return c.hash
}
