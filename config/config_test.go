package config

import (
	"testing"

	"github.com/pelletier/go-toml"
)

func TestDefaultUserConfigResolvesWithoutError(t *testing.T) {
	uc := Default()
	c, err := uc.Config(nil)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if c.LoadDistance != defaults.LoadDistance {
		t.Fatalf("got LoadDistance %d, want %d", c.LoadDistance, defaults.LoadDistance)
	}
	if c.RPCPort != defaults.RPCPort {
		t.Fatalf("got RPCPort %d, want %d", c.RPCPort, defaults.RPCPort)
	}
}

func TestZeroUserConfigFallsBackToDefaults(t *testing.T) {
	var uc UserConfig
	c, err := uc.Config(nil)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if c.UpdateThreadNumber != defaults.UpdateThreadNumber {
		t.Fatalf("got UpdateThreadNumber %d, want default %d", c.UpdateThreadNumber, defaults.UpdateThreadNumber)
	}
	if c.RotationInertia != defaults.RotationInertia {
		t.Fatalf("got RotationInertia %v, want default %v", c.RotationInertia, defaults.RotationInertia)
	}
}

func TestInvalidPortIsRejected(t *testing.T) {
	uc := Default()
	uc.Server.Port = 70000
	if _, err := uc.Config(nil); err == nil {
		t.Fatalf("expected an error for an out-of-range port")
	}
}

func TestUserConfigRoundTripsThroughTOML(t *testing.T) {
	uc := Default()
	uc.Server.LoadDistance = 6
	uc.GUI.MouseSensitivity = 2.5

	encoded, err := toml.Marshal(uc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded UserConfig
	if err := toml.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Server.LoadDistance != 6 {
		t.Fatalf("got LoadDistance %d after round trip, want 6", decoded.Server.LoadDistance)
	}
	if decoded.GUI.MouseSensitivity != 2.5 {
		t.Fatalf("got MouseSensitivity %v after round trip, want 2.5", decoded.GUI.MouseSensitivity)
	}
}
