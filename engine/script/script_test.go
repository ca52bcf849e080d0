package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/light"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
)

func newEngine(t *testing.T) (*Engine, *scene.Context, *memgpu.Backend) {
	t.Helper()
	root := t.TempDir()
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	if err := os.WriteFile(filepath.Join(root, "cube.obj"), []byte(obj), 0o644); err != nil {
		t.Fatal(err)
	}
	backend := memgpu.New()
	c := scene.NewContext(backend, loader.NewLoader(loader.WithRoot(root)))
	e := NewEngine(c, nil)
	t.Cleanup(e.Close)
	return e, c, backend
}

func TestSpawnAndEdit(t *testing.T) {
	e, c, _ := newEngine(t)
	err := e.LoadString(`
		lamp = spawn_light{ x = 1, y = 2, z = 3, intensity = 2 }
		box = spawn_model{ x = 4, scale = 2 }
		set_light_color(lamp, 0, 0, 1)
		set_model_position(box, 5, 6, 7)
	`)
	if err != nil {
		t.Fatal(err)
	}
	if c.Lights.Len() != 1 || c.Models.Len() != 1 {
		t.Fatalf("lights=%d models=%d", c.Lights.Len(), c.Models.Len())
	}

	lamp, ok := e.Entity(1)
	if !ok {
		t.Fatal("light id 1 not registered")
	}
	if col, _ := ecs.Get[light.Color](c.World, lamp); col.RGB != [3]float32{0, 0, 1} {
		t.Errorf("light colour = %v", col.RGB)
	}
	if in, _ := ecs.Get[light.Intensity](c.World, lamp); in.Value != 2 {
		t.Errorf("light intensity = %v", in.Value)
	}

	box, _ := e.Entity(2)
	tr, _ := ecs.Get[model.Transform](c.World, box)
	if tr.Position != [3]float32{5, 6, 7} || tr.Scale != [3]float32{2, 2, 2} {
		t.Errorf("model transform = %+v", tr)
	}
}

func TestFrameCallbackRunsBeforeRebuild(t *testing.T) {
	e, c, backend := newEngine(t)
	err := e.LoadString(`
		box = nil
		function frame(n)
			if n == 0 then
				box = spawn_model{}
			elseif n == 1 then
				destroy(box)
			end
		end
	`)
	if err != nil {
		t.Fatal(err)
	}
	if stats := c.Progress(); stats.HeapsRebuilt != 1 {
		t.Fatalf("frame 0 rebuilt %d heaps, want 1", stats.HeapsRebuilt)
	}
	if stats := c.Progress(); stats.Erased != 1 {
		t.Errorf("frame 1 erased %d records, want 1", stats.Erased)
	}
	if got := backend.Live(memgpu.KindResourceHeap); got != 0 {
		t.Errorf("live heaps = %d, want 0", got)
	}
	if e.Errors() != 0 {
		t.Errorf("frame errors = %d", e.Errors())
	}
}

func TestScriptErrors(t *testing.T) {
	e, c, _ := newEngine(t)
	if err := e.LoadString(`set_light_color(42, 1, 1, 1)`); err == nil || !strings.Contains(err.Error(), "unknown entity") {
		t.Errorf("unknown id: err = %v", err)
	}
	if err := e.LoadString(`box = spawn_model{}; set_light_color(box, 1, 1, 1)`); err == nil {
		t.Error("set_light_color on a model accepted")
	}
	if err := e.LoadString(`function frame(n) error("boom") end`); err != nil {
		t.Fatal(err)
	}
	c.Progress()
	if e.Errors() != 1 {
		t.Errorf("frame errors = %d, want 1", e.Errors())
	}
}

func TestLoadFile(t *testing.T) {
	e, c, _ := newEngine(t)
	path := filepath.Join(t.TempDir(), "scene.lua")
	src := "tex = spawn_texture('missing.png')\nbox = spawn_model{ texture = tex }\nset_texture(box, nil)\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Load(path); err != nil {
		t.Fatal(err)
	}
	box, _ := e.Entity(2)
	if ref, ok := ecs.Get[model.TextureRef](c.World, box); !ok || !ref.Entity.IsZero() {
		t.Errorf("texture ref = %+v, %v", ref, ok)
	}
	if err := e.Load(filepath.Join(t.TempDir(), "none.lua")); err == nil {
		t.Error("missing file accepted")
	}
}
