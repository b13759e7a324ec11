// Package rpcauthority implements the remote authority RPC contract: the
// three read-side method calls a non-authoritative core issues against the
// world's authoritative process, plus the fire-and-forget pick-block call.
package rpcauthority

import (
	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

// Authority is implemented by the authoritative side: the composition root
// that owns the real world.Registry and scheduler.TaskScheduler. The HTTP
// server in this package is a thin transport shim over it.
type Authority interface {
	// GetChunk ensures the chunk at pos in the named world exists,
	// creating it via the registered generator if needed, and returns its
	// current exported blob.
	GetChunk(worldID uint32, pos chunk.Pos) ([]voxel.Data, error)
	// AvailableWorldIDs lists every currently registered world's numeric
	// id.
	AvailableWorldIDs() []uint32
	// WorldInfo returns descriptive metadata for worldID, with at least
	// the key "name" populated.
	WorldInfo(worldID uint32) (map[string]string, error)
	// PickBlock requests that the voxel at pos in worldID be replaced
	// with air. The request is queued as a write task; PickBlock does not
	// wait for it to apply.
	PickBlock(worldID uint32, pos chunk.BlockPos) error
}

// chunkResponse is the wire shape of a get_chunk response.
type chunkResponse struct {
	Blob []uint32 `json:"blob"`
}

// worldsResponse is the wire shape of a get_available_world_ids response.
type worldsResponse struct {
	WorldIDs []uint32 `json:"world_ids"`
}

// pickBlockRequest is the wire shape of a pick_block request body.
type pickBlockRequest struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

// errorResponse is the wire shape of a non-2xx response body.
type errorResponse struct {
	Error string `json:"error"`
}

func blobToWire(blob []voxel.Data) []uint32 {
	out := make([]uint32, len(blob))
	for i, v := range blob {
		out[i] = uint32(v)
	}
	return out
}

func blobFromWire(raw []uint32) []voxel.Data {
	out := make([]voxel.Data, len(raw))
	for i, v := range raw {
		out[i] = voxel.Data(v)
	}
	return out
}
