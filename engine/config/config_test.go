package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverDefaults(t *testing.T) {
	path := writeFile(t, "oxy.toml", `
[window]
title = "viewer"
headless = true

[engine]
max_frames = 10
profile_interval = "250ms"

[shadow]
resolution = 1024

[prefetch]
paths = ["cube.obj", "default.png"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "viewer" || !cfg.Window.Headless {
		t.Errorf("window = %+v", cfg.Window)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("window size lost its default: %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Engine.MaxFrames != 10 || cfg.Engine.ProfileInterval != 250*time.Millisecond {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Engine.FrameInterval != 16*time.Millisecond {
		t.Errorf("frame interval = %v", cfg.Engine.FrameInterval)
	}
	if cfg.Shadow.Resolution != 1024 {
		t.Errorf("shadow resolution = %d", cfg.Shadow.Resolution)
	}
	if len(cfg.Prefetch.Paths) != 2 || cfg.Prefetch.Workers != 4 {
		t.Errorf("prefetch = %+v", cfg.Prefetch)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("logging format = %q", cfg.Logging.Format)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("missing file: err = %v", err)
	}
	bad := writeFile(t, "bad.toml", "[window\n")
	if _, err := Load(bad); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("bad syntax: err = %v", err)
	}
	clip := writeFile(t, "clip.toml", "[viewport]\nnear = 5.0\nfar = 1.0\n")
	if _, err := Load(clip); err == nil {
		t.Error("inverted clip planes accepted")
	}
	format := writeFile(t, "format.toml", "[logging]\nformat = \"xml\"\n")
	if _, err := Load(format); err == nil {
		t.Error("unknown log format accepted")
	}
}

func TestLoadPresets(t *testing.T) {
	path := writeFile(t, "presets.yaml", `
mesh: sphere.obj
material:
  diffuse: [0.5, 0.25, 1, 1]
viewport:
  position: [1, 2, 3]
  yaw: 0.5
`)
	p, err := LoadPresets(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Mesh != "sphere.obj" || p.Texture != "default.png" {
		t.Errorf("paths = %q %q", p.Mesh, p.Texture)
	}
	if p.Material.Diffuse != [4]float32{0.5, 0.25, 1, 1} {
		t.Errorf("diffuse = %v", p.Material.Diffuse)
	}
	if p.Viewport.Position != [3]float32{1, 2, 3} || p.Viewport.Yaw != 0.5 || p.Viewport.Pitch != 0 {
		t.Errorf("viewport = %+v", p.Viewport)
	}
}

func TestLoadPresetsRequiresPaths(t *testing.T) {
	path := writeFile(t, "presets.yaml", "texture: \"\"\n")
	if _, err := LoadPresets(path); err == nil {
		t.Error("empty texture path accepted")
	}
	bad := writeFile(t, "bad.yaml", "mesh: [\n")
	if _, err := LoadPresets(bad); err == nil || !strings.Contains(err.Error(), "parse presets") {
		t.Errorf("bad yaml: err = %v", err)
	}
}
