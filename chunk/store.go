package chunk

import (
	"fmt"
	"sync"
	"time"

	"github.com/voxelsync/voxelsync/voxel"
)

// ErrNotLoaded is returned by the block-level convenience accessors when the
// requested chunk is not currently present in the store.
var ErrNotLoaded = fmt.Errorf("chunk: position out of range, chunk not loaded")

// Store is a coordinate-keyed map of loaded chunks. Each position has at
// most one owning Chunk at a time; Store itself does not generate or fetch
// missing chunks, it only holds what has already been built or requested.
type Store struct {
	mu     sync.RWMutex
	chunks map[Pos]*Chunk
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{chunks: make(map[Pos]*Chunk)}
}

// Insert installs c at its own position, replacing any chunk previously
// held there. It returns the chunk that was displaced, or nil if the
// position was empty.
func (s *Store) Insert(c *Chunk) *Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.chunks[c.pos]
	s.chunks[c.pos] = c
	return prev
}

// Remove deletes and returns the chunk at pos, or nil if none was present.
func (s *Store) Remove(pos Pos) *Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[pos]
	if !ok {
		return nil
	}
	delete(s.chunks, pos)
	return c
}

// Get returns the chunk at pos, or nil if none is loaded.
func (s *Store) Get(pos Pos) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[pos]
}

// Contains reports whether a chunk is currently loaded at pos.
func (s *Store) Contains(pos Pos) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[pos]
	return ok
}

// Len returns the number of loaded chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Each calls f once for every loaded chunk. f must not call back into the
// Store; Each holds the read lock for its entire duration.
func (s *Store) Each(f func(*Chunk)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chunks {
		f(c)
	}
}

// Positions returns a snapshot of every currently loaded chunk position.
func (s *Store) Positions() []Pos {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pos, 0, len(s.chunks))
	for p := range s.chunks {
		out = append(out, p)
	}
	return out
}

// GetBlock reads the voxel at world-block position bp. It returns
// ErrNotLoaded if the containing chunk is not currently loaded, matching
// the "out of range" contract of the block-level read path.
func (s *Store) GetBlock(bp BlockPos) (voxel.Data, error) {
	c := s.Get(bp.Chunk())
	if c == nil {
		return 0, ErrNotLoaded
	}
	return c.Get(bp.Local()), nil
}

// SetBlock writes v at world-block position bp. It returns ErrNotLoaded if
// the containing chunk is not currently loaded, and propagates ErrLoading
// if the chunk exists but has not yet received its content.
func (s *Store) SetBlock(bp BlockPos, v voxel.Data) error {
	c := s.Get(bp.Chunk())
	if c == nil {
		return ErrNotLoaded
	}
	return c.Set(bp.Local(), v)
}

// Retire removes and returns every chunk currently eligible for retirement
// under window (see Chunk.IsRetirable). Callers are expected to call this
// periodically from the tick loop rather than on every access.
func (s *Store) Retire(window time.Duration) []*Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	var retired []*Chunk
	for pos, c := range s.chunks {
		if c.IsRetirable(window) {
			delete(s.chunks, pos)
			retired = append(retired, c)
		}
	}
	return retired
}
