package commands

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/scheduler"
	"github.com/voxelsync/voxelsync/voxel"
	"github.com/voxelsync/voxelsync/world"
)

func mglOrigin() mgl64.Vec3 { return mgl64.Vec3{0, 80, 0} }

// solidProbe returns an observer.Kinematics solidity check backed by w's
// loaded chunks, treating an unloaded region as non-solid.
func solidProbe(w *world.World) func(mgl64.Vec3) bool {
	return func(p mgl64.Vec3) bool {
		b := mgl64.Vec3{math.Floor(p.X()), math.Floor(p.Y()), math.Floor(p.Z())}
		return len(w.HitboxesIn(world.Range{Min: b, Max: b})) > 0
	}
}

// localAuthority adapts a world.Registry and its scheduler into the
// rpcauthority.Authority contract, generating chunks on demand for
// get_chunk requests and queuing pick-block edits as write tasks.
type localAuthority struct {
	registry *world.Registry
	sched    *scheduler.TaskScheduler
}

func newLocalAuthority(registry *world.Registry, sched *scheduler.TaskScheduler) *localAuthority {
	return &localAuthority{registry: registry, sched: sched}
}

func (a *localAuthority) worldByID(id uint32) (*world.World, error) {
	w := a.registry.ByID(id)
	if w == nil {
		return nil, fmt.Errorf("unknown world id %d", id)
	}
	return w, nil
}

// GetChunk implements rpcauthority.Authority.
func (a *localAuthority) GetChunk(worldID uint32, pos chunk.Pos) ([]voxel.Data, error) {
	w, err := a.worldByID(worldID)
	if err != nil {
		return nil, err
	}
	c := w.Store().Get(pos)
	if c == nil {
		c = chunk.NewBuilt(pos, w, w.DaylightBrightness())
		w.InsertChunkAndUpdate(c)
	}
	return c.Export(), nil
}

// AvailableWorldIDs implements rpcauthority.Authority.
func (a *localAuthority) AvailableWorldIDs() []uint32 {
	return a.registry.IDs()
}

// WorldInfo implements rpcauthority.Authority.
func (a *localAuthority) WorldInfo(worldID uint32) (map[string]string, error) {
	w, err := a.worldByID(worldID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"name":                w.Name(),
		"daylight_brightness": fmt.Sprintf("%d", w.DaylightBrightness()),
	}, nil
}

// PickBlock implements rpcauthority.Authority. The edit is queued as a
// write task and not guaranteed to be visible by the time this returns.
func (a *localAuthority) PickBlock(worldID uint32, pos chunk.BlockPos) error {
	w, err := a.worldByID(worldID)
	if err != nil {
		return err
	}
	a.sched.EnqueueWriteTask(func() {
		_ = w.Store().SetBlock(pos, voxel.New(voxel.Air, w.DaylightBrightness(), 0))
	})
	return nil
}
