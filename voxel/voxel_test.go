package voxel

import "testing"

func TestDataPacksAndUnpacksFields(t *testing.T) {
	d := New(1234, 9, 54321)
	if got := d.ID(); got != 1234 {
		t.Fatalf("got id %d, want 1234", got)
	}
	if got := d.Brightness(); got != 9 {
		t.Fatalf("got brightness %d, want 9", got)
	}
	if got := d.State(); got != 54321 {
		t.Fatalf("got state %d, want 54321", got)
	}
}

func TestDataTruncatesOversizedFields(t *testing.T) {
	d := New(0xFFFF, 0xFF, 0xFFFF)
	if got := d.ID(); got != 0xFFF {
		t.Fatalf("got id %#x, want truncated to 12 bits (%#x)", got, 0xFFF)
	}
	if got := d.Brightness(); got != 0xF {
		t.Fatalf("got brightness %#x, want truncated to 4 bits (%#x)", got, 0xF)
	}
}

func TestIsAir(t *testing.T) {
	if !AirData.IsAir() {
		t.Fatalf("AirData must report IsAir")
	}
	if New(1, 0, 0).IsAir() {
		t.Fatalf("a non-zero id must not report IsAir")
	}
}

func TestWithBrightnessPreservesIDAndState(t *testing.T) {
	d := New(5, 2, 99)
	d2 := d.WithBrightness(15)
	if d2.ID() != 5 || d2.State() != 99 {
		t.Fatalf("WithBrightness changed id/state: got %+v", d2)
	}
	if d2.Brightness() != 15 {
		t.Fatalf("got brightness %d, want 15", d2.Brightness())
	}
}

func TestRegistryAssignsSequentialIDsStartingAfterAir(t *testing.T) {
	r := NewRegistry()
	stone := r.Register(Properties{Name: "stone", Solid: true, Opaque: true})
	dirt := r.Register(Properties{Name: "dirt", Solid: true, Opaque: true})
	if stone != 1 || dirt != 2 {
		t.Fatalf("got ids (%d, %d), want (1, 2) following the pre-bound air id 0", stone, dirt)
	}
}

func TestSolidIsAlwaysFalseForAirAndUnregisteredIDs(t *testing.T) {
	r := NewRegistry()
	if r.Solid(Air) {
		t.Fatalf("air must never be solid")
	}
	if r.Solid(999) {
		t.Fatalf("an unregistered id must never be solid")
	}
}

func TestLookupReportsMissForUnregisteredID(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup(42); ok {
		t.Fatalf("Lookup should report a miss for an id never registered")
	}
}
