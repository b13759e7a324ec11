// Package config holds the configuration keys the core recognises: the
// two-stage UserConfig (TOML-facing) -> Config (runtime) conversion
// pattern, following the server's own configuration loading idiom.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// Config is the fully-resolved runtime configuration, with every default
// already filled in. Construct it via UserConfig.Config rather than
// directly.
type Config struct {
	Log *slog.Logger

	// LoadDistance is the streamer's load_range in chunks
	// (server.load_distance).
	LoadDistance int32
	// RPCPort is the remote authority RPC listen port (server.port).
	RPCPort int
	// RPCThreadNumber sizes the RPC server's worker pool
	// (server.rpc_thread_number). external to the core; carried through
	// so a composition root can size its HTTP server accordingly.
	RPCThreadNumber int
	// UpdateThreadNumber sizes the scheduler's read-phase worker pool
	// (scheduler.update_thread_number; there is no top-level
	// update_thread_number key).
	UpdateThreadNumber int
	// RotationInertia is the observer's rotation damping factor
	// (gui.rotation_interia).
	RotationInertia float64
	// MouseSensitivity scales queued look input before it reaches
	// Observer.Kinematics (gui.mouse_sensitivity).
	MouseSensitivity float64
	// RenderDistance is the external render range (gui.render_distance).
	RenderDistance int32

	// TickInterval_ms is the scheduler's nominal tick period, in
	// milliseconds.
	TickInterval_ms int
	// RetentionSeconds is the chunk retire policy's retention window.
	RetentionSeconds int
}

// defaults mirrors the built-in fallback values used when a UserConfig
// field is left at its zero value.
var defaults = Config{
	LoadDistance:       4,
	RPCPort:            19132,
	RPCThreadNumber:    4,
	UpdateThreadNumber: 4,
	RotationInertia:    0.35,
	MouseSensitivity:   1.0,
	RenderDistance:     8,
	TickInterval_ms:    33,
	RetentionSeconds:   10,
}

// UserConfig is the TOML-facing configuration shape. Every field is
// optional; zero values are replaced by the built-in defaults when
// converted via Config.
type UserConfig struct {
	Server struct {
		LoadDistance    int `toml:"load_distance"`
		Port            int `toml:"port"`
		RPCThreadNumber int `toml:"rpc_thread_number"`
	} `toml:"server"`
	Scheduler struct {
		UpdateThreadNumber int `toml:"update_thread_number"`
		TickIntervalMS     int `toml:"tick_interval_ms"`
	} `toml:"scheduler"`
	GUI struct {
		RotationInertia  float64 `toml:"rotation_interia"`
		MouseSensitivity float64 `toml:"mouse_sensitivity"`
		RenderDistance   int     `toml:"render_distance"`
	} `toml:"gui"`
	Chunk struct {
		RetentionSeconds int `toml:"retention_seconds"`
	} `toml:"chunk"`
}

// Default returns a UserConfig populated with the same values Config would
// fall back to if every field were left zero, suitable as a starting point
// for a TOML file written out by an operator.
func Default() UserConfig {
	var uc UserConfig
	uc.Server.LoadDistance = int(defaults.LoadDistance)
	uc.Server.Port = defaults.RPCPort
	uc.Server.RPCThreadNumber = defaults.RPCThreadNumber
	uc.Scheduler.UpdateThreadNumber = defaults.UpdateThreadNumber
	uc.Scheduler.TickIntervalMS = defaults.TickInterval_ms
	uc.GUI.RotationInertia = defaults.RotationInertia
	uc.GUI.MouseSensitivity = defaults.MouseSensitivity
	uc.GUI.RenderDistance = int(defaults.RenderDistance)
	uc.Chunk.RetentionSeconds = defaults.RetentionSeconds
	return uc
}

// Config converts uc into a fully-resolved Config, filling every zero
// field with its built-in default.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	c := Config{Log: log}

	c.LoadDistance = int32(uc.Server.LoadDistance)
	if c.LoadDistance <= 0 {
		c.LoadDistance = defaults.LoadDistance
	}
	c.RPCPort = uc.Server.Port
	if c.RPCPort <= 0 {
		c.RPCPort = defaults.RPCPort
	}
	if c.RPCPort < 0 || c.RPCPort > 65535 {
		return Config{}, fmt.Errorf("config: server.port %d out of range", c.RPCPort)
	}
	c.RPCThreadNumber = uc.Server.RPCThreadNumber
	if c.RPCThreadNumber <= 0 {
		c.RPCThreadNumber = defaults.RPCThreadNumber
	}
	c.UpdateThreadNumber = uc.Scheduler.UpdateThreadNumber
	if c.UpdateThreadNumber <= 0 {
		c.UpdateThreadNumber = defaults.UpdateThreadNumber
	}
	c.TickInterval_ms = uc.Scheduler.TickIntervalMS
	if c.TickInterval_ms <= 0 {
		c.TickInterval_ms = defaults.TickInterval_ms
	}
	c.RotationInertia = uc.GUI.RotationInertia
	if c.RotationInertia <= 0 {
		c.RotationInertia = defaults.RotationInertia
	}
	c.MouseSensitivity = uc.GUI.MouseSensitivity
	if c.MouseSensitivity <= 0 {
		c.MouseSensitivity = defaults.MouseSensitivity
	}
	c.RenderDistance = int32(uc.GUI.RenderDistance)
	if c.RenderDistance <= 0 {
		c.RenderDistance = defaults.RenderDistance
	}
	c.RetentionSeconds = uc.Chunk.RetentionSeconds
	if c.RetentionSeconds <= 0 {
		c.RetentionSeconds = defaults.RetentionSeconds
	}
	return c, nil
}

// LoadUserConfig loads the UserConfig stored in the TOML file at path. If
// the file does not exist yet, it is created with the built-in defaults.
func LoadUserConfig(path string) (UserConfig, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			uc := Default()
			if err := SaveUserConfig(path, uc); err != nil {
				return UserConfig{}, err
			}
			return uc, nil
		}
		return UserConfig{}, fmt.Errorf("read config: %w", err)
	}
	uc := Default()
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &uc); err != nil {
			return UserConfig{}, fmt.Errorf("decode config: %w", err)
		}
	}
	return uc, nil
}

// SaveUserConfig writes uc to path as TOML, creating any missing parent
// directories.
func SaveUserConfig(path string, uc UserConfig) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	encoded, err := toml.Marshal(uc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
