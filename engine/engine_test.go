package engine

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/camera"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

func newScene(t *testing.T) (*scene.Context, *memgpu.Backend) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "cube.obj"), []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(root, "default.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	backend := memgpu.New()
	c := scene.NewContext(backend, loader.NewLoader(loader.WithRoot(root)))
	t.Cleanup(c.Close)
	return c, backend
}

func TestRunStopsAtMaxFrames(t *testing.T) {
	c, _ := newScene(t)
	e := NewEngine(c, WithMaxFrames(3))
	ticks := 0
	e.SetTickCallback(func(float32) { ticks++ })
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 3 || ticks != 3 {
		t.Errorf("frames = %d, ticks = %d, want 3", e.Frames(), ticks)
	}
	if c.World.Frame() != 3 {
		t.Errorf("world frame = %d, want 3", c.World.Frame())
	}
}

func TestQuitFromTick(t *testing.T) {
	c, _ := newScene(t)
	e := NewEngine(c)
	e.SetTickCallback(func(float32) {
		if e.Frames() == 4 {
			e.Quit()
		}
	})
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 5 {
		t.Errorf("frames = %d, want 5", e.Frames())
	}
	e.Quit()
}

func TestFramePanicIsReturned(t *testing.T) {
	c, _ := newScene(t)
	c.OnStore("test.explode", func(*scene.Context) { panic("boom") })
	e := NewEngine(c, WithMaxFrames(10))
	if err := e.Run(); err == nil {
		t.Fatal("panicking frame returned nil")
	}
}

func TestCameraMovesPresetViewport(t *testing.T) {
	c, _ := newScene(t)
	cam := camera.NewCameraController()
	cam.KeyDown(common.KeyE)
	e := NewEngine(c, WithCamera(cam), WithMaxFrames(2))
	before, _ := ecs.Get[viewport.Position](c.World, c.Presets.Viewport)
	start := before.XYZ
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	after, _ := ecs.Get[viewport.Position](c.World, c.Presets.Viewport)
	if after.XYZ[1] <= start[1] {
		t.Errorf("viewport did not rise: %v -> %v", start, after.XYZ)
	}
}
