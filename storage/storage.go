// Package storage defines the on-disk world storage contract the streamer
// consults before falling back to generation, and a goleveldb-backed
// implementation of it.
package storage

import (
	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

// WorldStorage is a blocking key/value store keyed by (world name, chunk
// position). A miss is reported via the bool return, never an error: an
// absent chunk simply means the caller should generate one instead.
type WorldStorage interface {
	// LoadChunk returns the blob stored for (world, pos). The blob is
	// either length 1 (monotonic) or length chunk.Volume (dense).
	LoadChunk(world string, pos chunk.Pos) (blob []voxel.Data, found bool, err error)
	// SaveChunk persists blob for (world, pos), overwriting any existing
	// entry.
	SaveChunk(world string, pos chunk.Pos, blob []voxel.Data) error
	// Close releases the underlying file handles and database connection.
	Close() error
}
