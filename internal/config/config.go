// Package config loads the mirrorctl tool configuration from YAML, layering
// file values over built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/peterje/mirrorctl/internal/protocol"
)

type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Video     VideoConfig     `yaml:"video"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Tunnel    TunnelConfig    `yaml:"tunnel"`
	Journal   JournalConfig   `yaml:"journal"`
}

type DeviceConfig struct {
	// Serial selects the device; empty picks the first online one.
	Serial    string `yaml:"serial"`
	StayAwake bool   `yaml:"stay_awake"`
	// LockOrientation is one of the protocol orientation-lock values;
	// -1 leaves the device unlocked.
	LockOrientation int `yaml:"lock_orientation"`
}

type VideoConfig struct {
	MaxSize    int    `yaml:"max_size"`
	BitRate    int    `yaml:"bit_rate"`
	MaxFPS     int    `yaml:"max_fps"`
	BlockFrame bool   `yaml:"block_frame"`
	ServerJar  string `yaml:"server_jar"`
}

type BroadcastConfig struct {
	// Addr to serve the viewer websocket on; empty disables broadcasting.
	Addr string `yaml:"addr"`
}

type TunnelConfig struct {
	// Addr to serve the remote-control tunnel on; empty disables it.
	Addr string `yaml:"addr"`
}

type JournalConfig struct {
	// Path of the sqlite journal; empty disables journaling.
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			LockOrientation: protocol.LockOrientationUnlocked,
		},
		Video: VideoConfig{
			BitRate:   8_000_000,
			ServerJar: "scrcpy-server.jar",
		},
	}
}

// Load reads the file at path over the defaults. A missing path returns the
// defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
