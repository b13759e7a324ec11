package streamer

import (
	"sort"

	"github.com/voxelsync/voxelsync/chunk"
)

type candidate struct {
	pos    chunk.Pos
	distSq float64
}

// nearestSet keeps the capacity nearest-by-squared-distance candidates
// seen so far, maintained as a fixed-capacity array sorted ascending by
// distSq via insertion sort. Used by the streamer's load-candidate pass.
type nearestSet struct {
	capacity int
	items    []candidate
}

func newNearestSet(capacity int) *nearestSet {
	return &nearestSet{capacity: capacity, items: make([]candidate, 0, capacity)}
}

// consider offers pos at squared distance distSq. It is kept only if the
// set has room or it beats the current worst (farthest) kept candidate.
func (s *nearestSet) consider(pos chunk.Pos, distSq float64) {
	if len(s.items) >= s.capacity && distSq >= s.items[len(s.items)-1].distSq {
		return
	}
	idx := sort.Search(len(s.items), func(i int) bool { return s.items[i].distSq >= distSq })
	s.items = append(s.items, candidate{})
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = candidate{pos: pos, distSq: distSq}
	if len(s.items) > s.capacity {
		s.items = s.items[:s.capacity]
	}
}

func (s *nearestSet) positions() []chunk.Pos {
	out := make([]chunk.Pos, len(s.items))
	for i, c := range s.items {
		out[i] = c.pos
	}
	return out
}

// farthestSet keeps the capacity farthest-by-squared-distance candidates
// seen so far, sorted descending by distSq. Used by the streamer's
// unload-candidate pass.
type farthestSet struct {
	capacity int
	items    []candidate
}

func newFarthestSet(capacity int) *farthestSet {
	return &farthestSet{capacity: capacity, items: make([]candidate, 0, capacity)}
}

func (s *farthestSet) consider(pos chunk.Pos, distSq float64) {
	if len(s.items) >= s.capacity && distSq <= s.items[len(s.items)-1].distSq {
		return
	}
	idx := sort.Search(len(s.items), func(i int) bool { return s.items[i].distSq <= distSq })
	s.items = append(s.items, candidate{})
	copy(s.items[idx+1:], s.items[idx:])
	s.items[idx] = candidate{pos: pos, distSq: distSq}
	if len(s.items) > s.capacity {
		s.items = s.items[:s.capacity]
	}
}

func (s *farthestSet) positions() []chunk.Pos {
	out := make([]chunk.Pos, len(s.items))
	for i, c := range s.items {
		out[i] = c.pos
	}
	return out
}

func squaredDistance(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}
