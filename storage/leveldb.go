package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

// LevelDB is a WorldStorage backed by a single goleveldb database shared
// across every world, keyed by an encoded (world name, chunk position)
// tuple. The database handle is acquired in NewLevelDB and released on
// Close, with every exit path from NewLevelDB itself also closing the
// handle on failure.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens (creating if absent) a goleveldb database at dir.
func NewLevelDB(dir string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{
		Compression: opt.SnappyCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb at %q: %w", dir, err)
	}
	return &LevelDB{db: db}, nil
}

// key encodes (world, pos) into a fixed-width byte slice: an 8-byte xxhash
// digest of the world name followed by the big-endian chunk coordinates, so
// keys for the same world sort together by coordinate without storing the
// variable-length world name in every key.
func key(world string, pos chunk.Pos) []byte {
	b := make([]byte, 20)
	binary.BigEndian.PutUint64(b, xxhash.Sum64String(world))
	binary.BigEndian.PutUint32(b[8:], uint32(pos.X))
	binary.BigEndian.PutUint32(b[12:], uint32(pos.Y))
	binary.BigEndian.PutUint32(b[16:], uint32(pos.Z))
	return b
}

// LoadChunk returns the blob stored under (world, pos), decoded from its
// little-endian wire encoding.
func (l *LevelDB) LoadChunk(world string, pos chunk.Pos) ([]voxel.Data, bool, error) {
	raw, err := l.db.Get(key(world, pos), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: load chunk %s/%s: %w", world, pos, err)
	}
	if len(raw)%4 != 0 {
		return nil, false, fmt.Errorf("storage: corrupt chunk blob %s/%s: length %d not a multiple of 4", world, pos, len(raw))
	}
	blob := make([]voxel.Data, len(raw)/4)
	for i := range blob {
		blob[i] = voxel.Data(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return blob, true, nil
}

// SaveChunk persists blob under (world, pos).
func (l *LevelDB) SaveChunk(world string, pos chunk.Pos, blob []voxel.Data) error {
	raw := make([]byte, len(blob)*4)
	for i, v := range blob {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
	}
	if err := l.db.Put(key(world, pos), raw, nil); err != nil {
		return fmt.Errorf("storage: save chunk %s/%s: %w", world, pos, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
