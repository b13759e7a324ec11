package generator

import (
	"testing"

	"github.com/voxelsync/voxelsync/chunk"
)

type fakeWorld struct{ daylight uint8 }

func (f fakeWorld) DaylightBrightness() uint8 { return f.daylight }

func TestFlatFillsBelowGroundHeight(t *testing.T) {
	f := Flat{GroundHeight: 64, SolidID: 1}
	out := chunk.NewLoading(chunk.Pos{X: 0, Y: 0, Z: 0}, fakeWorld{daylight: 15})
	f.Generate(chunk.Pos{X: 0, Y: 0, Z: 0}, out, 15)

	below := out.Get(chunk.LocalPos{X: 0, Y: 0, Z: 0})
	if below.ID() != 1 {
		t.Fatalf("got id %d at y=0, want solid id 1 (ground height 64)", below.ID())
	}
}

func TestFlatLeavesAboveGroundHeightAsAir(t *testing.T) {
	f := Flat{GroundHeight: 4, SolidID: 1}
	out := chunk.NewLoading(chunk.Pos{X: 0, Y: 0, Z: 0}, fakeWorld{daylight: 15})
	f.Generate(chunk.Pos{X: 0, Y: 0, Z: 0}, out, 15)

	above := out.Get(chunk.LocalPos{X: 0, Y: 31, Z: 0})
	if !above.IsAir() {
		t.Fatalf("got id %d near chunk top, want air (ground height 4)", above.ID())
	}
}

func TestHillsIsDeterministicForAFixedSeed(t *testing.T) {
	h := Hills{Seed: 42, BaseHeight: 64, Amplitude: 8, SolidID: 2, SurfaceID: 3}
	a := chunk.NewLoading(chunk.Pos{X: 0, Y: 2, Z: 0}, fakeWorld{daylight: 15})
	b := chunk.NewLoading(chunk.Pos{X: 0, Y: 2, Z: 0}, fakeWorld{daylight: 15})
	h.Generate(chunk.Pos{X: 0, Y: 2, Z: 0}, a, 15)
	h.Generate(chunk.Pos{X: 0, Y: 2, Z: 0}, b, 15)

	if a.Export()[0] != b.Export()[0] {
		t.Fatalf("two generation passes at the same seed and position disagree on their first exported voxel")
	}
	for x := uint8(0); x < chunk.Size; x++ {
		pa := a.Get(chunk.LocalPos{X: x, Y: 0, Z: 0})
		pb := b.Get(chunk.LocalPos{X: x, Y: 0, Z: 0})
		if pa != pb {
			t.Fatalf("hills generator is not deterministic at x=%d: got %v vs %v", x, pa, pb)
		}
	}
}

func TestHillsHeightStaysWithinAmplitudeBand(t *testing.T) {
	h := Hills{Seed: 7, BaseHeight: 64, Amplitude: 10, SolidID: 2, SurfaceID: 3}
	out := chunk.NewLoading(chunk.Pos{X: 0, Y: 2, Z: 0}, fakeWorld{daylight: 15})
	h.Generate(chunk.Pos{X: 0, Y: 2, Z: 0}, out, 15)

	for y := uint8(0); y < chunk.Size; y++ {
		worldY := int32(2*chunk.Size) + int32(y)
		v := out.Get(chunk.LocalPos{X: 0, Y: y, Z: 0})
		if worldY < h.BaseHeight-h.Amplitude-1 && v.IsAir() {
			t.Fatalf("voxel well below the amplitude band should never be air (y=%d)", worldY)
		}
		if worldY > h.BaseHeight+h.Amplitude+1 && !v.IsAir() {
			t.Fatalf("voxel well above the amplitude band should always be air (y=%d)", worldY)
		}
	}
}
