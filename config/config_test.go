package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"soundsys/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.Backend != "openal" {
		t.Errorf("expected backend 'openal', got %q", cfg.Backend)
	}
	if cfg.OutputDeviceID != -1 {
		t.Error("expected output device to default to -1")
	}
	if cfg.ReverbEnabled {
		t.Error("expected reverb disabled by default")
	}
	if cfg.SampleRate != 44100 {
		t.Errorf("expected default sample rate 44100, got %d", cfg.SampleRate)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := config.Config{
		Backend:        "portaudio",
		OutputDeviceID: 2,
		MasterVolume:   -500,
		ReverbPreset:   8,
		ReverbEnabled:  true,
		SampleRate:     48000,
	}

	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := config.Load()
	if loaded.Backend != cfg.Backend {
		t.Errorf("backend: want %q got %q", cfg.Backend, loaded.Backend)
	}
	if loaded.OutputDeviceID != cfg.OutputDeviceID {
		t.Errorf("output device: want %d got %d", cfg.OutputDeviceID, loaded.OutputDeviceID)
	}
	if loaded.MasterVolume != cfg.MasterVolume {
		t.Errorf("master volume: want %d got %d", cfg.MasterVolume, loaded.MasterVolume)
	}
	if loaded.ReverbPreset != cfg.ReverbPreset {
		t.Errorf("reverb preset: want %d got %d", cfg.ReverbPreset, loaded.ReverbPreset)
	}
	if loaded.ReverbEnabled != cfg.ReverbEnabled {
		t.Errorf("reverb enabled: want %v got %v", cfg.ReverbEnabled, loaded.ReverbEnabled)
	}
	if loaded.SampleRate != cfg.SampleRate {
		t.Errorf("sample rate: want %d got %d", cfg.SampleRate, loaded.SampleRate)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := config.Load()
	if cfg.Backend == "" {
		t.Error("expected non-empty backend from defaults")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "soundsys", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json {{{"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Load()
	if cfg.Backend != "openal" {
		t.Errorf("expected default backend on corrupt file, got %q", cfg.Backend)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := config.Save(config.Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "soundsys", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}
