package storage

import (
	"sync"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

type memoryKey struct {
	world string
	pos   chunk.Pos
}

// Memory is an in-process WorldStorage backed by a map, used in tests and
// for ephemeral worlds that should never touch disk.
type Memory struct {
	mu   sync.RWMutex
	data map[memoryKey][]voxel.Data
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[memoryKey][]voxel.Data)}
}

func (m *Memory) LoadChunk(world string, pos chunk.Pos) ([]voxel.Data, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.data[memoryKey{world, pos}]
	if !ok {
		return nil, false, nil
	}
	out := make([]voxel.Data, len(blob))
	copy(out, blob)
	return out, true, nil
}

func (m *Memory) SaveChunk(world string, pos chunk.Pos, blob []voxel.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]voxel.Data, len(blob))
	copy(stored, blob)
	m.data[memoryKey{world, pos}] = stored
	return nil
}

func (m *Memory) Close() error { return nil }
