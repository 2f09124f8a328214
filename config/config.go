// Package config manages persistent engine preferences. Settings are
// stored as JSON at os.UserConfigDir()/soundsys/config.json, the same
// layout and load/save discipline as the teacher's client/internal/config
// package.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all persistent engine preferences.
type Config struct {
	Backend        string `json:"backend"`
	OutputDeviceID int    `json:"output_device_id"`
	MasterVolume   int    `json:"master_volume"`
	ReverbPreset   int    `json:"reverb_preset"`
	ReverbEnabled  bool   `json:"reverb_enabled"`
	SampleRate     int    `json:"sample_rate"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Backend:        "openal",
		OutputDeviceID: -1,
		MasterVolume:   0,
		ReverbPreset:   0,
		ReverbEnabled:  false,
		SampleRate:     44100,
	}
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "soundsys", "config.json"), nil
}

// Load reads the config file and returns it. If the file is missing or
// unreadable, the default config is returned — never an error.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
