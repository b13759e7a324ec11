package chunk

import (
	"testing"
	"time"

	"github.com/voxelsync/voxelsync/voxel"
)

func TestStoreInsertGetRemove(t *testing.T) {
	s := NewStore()
	c := NewBuilt(Pos{1, 1, 1}, fakeWorld{}, 0)
	if prev := s.Insert(c); prev != nil {
		t.Fatalf("got displaced chunk %v, want nil", prev)
	}
	if got := s.Get(Pos{1, 1, 1}); got != c {
		t.Fatalf("Get returned %v, want the inserted chunk", got)
	}
	if !s.Contains(Pos{1, 1, 1}) {
		t.Fatalf("Contains should report true for an inserted position")
	}
	if removed := s.Remove(Pos{1, 1, 1}); removed != c {
		t.Fatalf("Remove returned %v, want the inserted chunk", removed)
	}
	if s.Contains(Pos{1, 1, 1}) {
		t.Fatalf("Contains should report false after Remove")
	}
}

func TestStoreBlockAccessorsRequireLoadedChunk(t *testing.T) {
	s := NewStore()
	bp := BlockPos{40, 1, 1}
	if _, err := s.GetBlock(bp); err != ErrNotLoaded {
		t.Fatalf("got err %v, want ErrNotLoaded", err)
	}
	if err := s.SetBlock(bp, voxel.New(1, 0, 0)); err != ErrNotLoaded {
		t.Fatalf("got err %v, want ErrNotLoaded", err)
	}

	s.Insert(NewBuilt(bp.Chunk(), fakeWorld{}, 0))
	if err := s.SetBlock(bp, voxel.New(1, 0, 0)); err != nil {
		t.Fatalf("SetBlock on loaded chunk returned error: %v", err)
	}
	got, err := s.GetBlock(bp)
	if err != nil {
		t.Fatalf("GetBlock on loaded chunk returned error: %v", err)
	}
	if got.ID() != 1 {
		t.Fatalf("got id %d, want 1", got.ID())
	}
}

func TestStoreRetireOnlyRemovesEligibleChunks(t *testing.T) {
	s := NewStore()
	held := NewBuilt(Pos{0, 0, 0}, fakeWorld{}, 0)
	held.Acquire()
	stale := NewBuilt(Pos{1, 0, 0}, fakeWorld{}, 0)
	stale.lastTouch.Store(0)
	s.Insert(held)
	s.Insert(stale)

	retired := s.Retire(10 * time.Second)
	if len(retired) != 1 || retired[0] != stale {
		t.Fatalf("got retired %v, want exactly [stale]", retired)
	}
	if !s.Contains(Pos{0, 0, 0}) {
		t.Fatalf("held chunk should not have been retired")
	}
	if s.Contains(Pos{1, 0, 0}) {
		t.Fatalf("stale chunk should have been removed from the store")
	}
}
