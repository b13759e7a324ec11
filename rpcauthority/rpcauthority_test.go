package rpcauthority

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/voxel"
)

type nilWriter struct{}

func (nilWriter) Write(p []byte) (int, error) { return len(p), nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nilWriter{}, nil))
}

type fakeAuthority struct {
	blob        []voxel.Data
	worldIDs    []uint32
	info        map[string]string
	pickedAt    []chunk.BlockPos
}

func (f *fakeAuthority) GetChunk(worldID uint32, pos chunk.Pos) ([]voxel.Data, error) {
	return f.blob, nil
}
func (f *fakeAuthority) AvailableWorldIDs() []uint32 { return f.worldIDs }
func (f *fakeAuthority) WorldInfo(worldID uint32) (map[string]string, error) {
	return f.info, nil
}
func (f *fakeAuthority) PickBlock(worldID uint32, pos chunk.BlockPos) error {
	f.pickedAt = append(f.pickedAt, pos)
	return nil
}

func TestClientRequestChunkRoundTrip(t *testing.T) {
	authority := &fakeAuthority{blob: []voxel.Data{voxel.New(3, 1, 0)}}
	srv := httptest.NewServer(NewServer(authority, discardLogger()))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), discardLogger())
	future := client.RequestChunk(0, chunk.Pos{X: 1, Y: 2, Z: 3})
	blob, ready, err := future.Poll(2 * time.Second)
	if err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if !ready {
		t.Fatalf("future did not become ready within timeout")
	}
	if len(blob) != 1 || blob[0] != authority.blob[0] {
		t.Fatalf("got blob %v, want %v", blob, authority.blob)
	}
}

func TestClientAvailableWorldIDs(t *testing.T) {
	authority := &fakeAuthority{worldIDs: []uint32{0, 1, 2}}
	srv := httptest.NewServer(NewServer(authority, discardLogger()))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), discardLogger())
	ids, err := client.AvailableWorldIDs()
	if err != nil {
		t.Fatalf("AvailableWorldIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d ids, want 3", len(ids))
	}
}

func TestClientPickBlock(t *testing.T) {
	authority := &fakeAuthority{}
	srv := httptest.NewServer(NewServer(authority, discardLogger()))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client(), discardLogger())
	if err := client.PickBlock(0, chunk.BlockPos{X: 4, Y: 5, Z: 6}); err != nil {
		t.Fatalf("PickBlock: %v", err)
	}
	if len(authority.pickedAt) != 1 || authority.pickedAt[0] != (chunk.BlockPos{X: 4, Y: 5, Z: 6}) {
		t.Fatalf("got picked %v, want one entry at (4,5,6)", authority.pickedAt)
	}
}
