package light

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

type fixture struct {
	w         *ecs.World
	backend   *memgpu.Backend
	viewports *viewport.Manager
	lights    *Manager
	preset    slot.Key
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{w: ecs.NewWorld(), backend: memgpu.New()}
	f.viewports = viewport.NewManager(f.w, f.backend)
	f.lights = NewManager(f.w, f.backend, f.viewports, nil)

	e := f.w.NewEntity()
	ecs.Add[viewport.Tag](f.w, e)
	f.preset, _ = resource.KeyOf[viewport.State](f.w, e)
	f.viewports.SetPreset(f.preset)
	f.viewports.Upload(f.lights)
	return f
}

func (f *fixture) collect(vk slot.Key) []viewport.GPUPointLight {
	var out []viewport.GPUPointLight
	f.lights.EachLight(vk, func(l viewport.GPUPointLight) { out = append(out, l) })
	return out
}

func TestLightDefaults(t *testing.T) {
	f := newFixture(t)
	e := f.w.NewEntity()
	ecs.Add[Tag](f.w, e)

	if got := f.viewports.At(f.preset).Dirty; got != viewport.LightDirty {
		t.Fatalf("preset viewport state = %v, want LightDirty", got)
	}
	f.viewports.Upload(f.lights)

	slot0 := viewport.ReadPointLight(f.backend.BufferData(f.viewports.At(f.preset).Buffer), 0)
	want := viewport.GPUPointLight{Color: DefaultColor, Intensity: 1, Distance: 5}
	if slot0 != want {
		t.Errorf("slot 0 = %+v, want %+v", slot0, want)
	}
}

func TestLightChangesMarkViewport(t *testing.T) {
	f := newFixture(t)
	e := f.w.NewEntity()
	ecs.Add[Tag](f.w, e)
	f.viewports.Upload(f.lights)

	ecs.Set(f.w, e, Color{RGB: [3]float32{1, 0, 0}})
	if f.viewports.At(f.preset).Dirty&viewport.LightDirty == 0 {
		t.Error("colour change did not flag the viewport")
	}
	f.viewports.Upload(f.lights)
	if got := f.collect(f.preset); len(got) != 1 || got[0].Color != [3]float32{1, 0, 0} {
		t.Errorf("lights = %+v", got)
	}

	ecs.Remove[Tag](f.w, e)
	if f.viewports.At(f.preset).Dirty&viewport.LightDirty == 0 {
		t.Error("light removal did not flag the viewport")
	}
	if got := f.collect(f.preset); len(got) != 0 {
		t.Errorf("retiring light still listed: %+v", got)
	}
}

func TestLightViewportRef(t *testing.T) {
	f := newFixture(t)
	other := f.w.NewEntity()
	ecs.Add[viewport.Tag](f.w, other)
	otherKey, _ := resource.KeyOf[viewport.State](f.w, other)

	e := f.w.NewEntity()
	ecs.Set(f.w, e, ViewportRef{Entity: other})
	ecs.Add[Tag](f.w, e)
	if len(f.collect(otherKey)) != 1 || len(f.collect(f.preset)) != 0 {
		t.Fatal("light not attached to its viewport")
	}

	f.viewports.Upload(f.lights)
	ecs.Set(f.w, e, ViewportRef{})
	if f.viewports.At(otherKey).Dirty&viewport.LightDirty == 0 || f.viewports.At(f.preset).Dirty&viewport.LightDirty == 0 {
		t.Error("moving the light did not flag both viewports")
	}
	if len(f.collect(f.preset)) != 1 {
		t.Error("light not moved to the preset viewport")
	}
}

func TestLightFollowsLateViewport(t *testing.T) {
	f := newFixture(t)
	late := f.w.NewEntity()
	e := f.w.NewEntity()
	ecs.Set(f.w, e, ViewportRef{Entity: late})
	ecs.Add[Tag](f.w, e)
	f.viewports.Upload(f.lights)
	if len(f.collect(f.preset)) != 1 {
		t.Fatal("light with an uninitialized viewport not on the preset")
	}

	ecs.Add[viewport.Tag](f.w, late)
	lateKey, _ := resource.KeyOf[viewport.State](f.w, late)
	if f.viewports.At(f.preset).Dirty&viewport.LightDirty == 0 {
		t.Error("preset not flagged when the light left it")
	}
	if len(f.collect(f.preset)) != 0 || len(f.collect(lateKey)) != 1 {
		t.Error("light not moved to its initialized viewport")
	}

	f.viewports.Upload(f.lights)
	ecs.Remove[viewport.Tag](f.w, late)
	if f.viewports.At(f.preset).Dirty&viewport.LightDirty == 0 {
		t.Error("preset not flagged when the light came back")
	}
	if len(f.collect(f.preset)) != 1 {
		t.Error("light not back on the preset after its viewport retired")
	}
}

func TestShadowFacesFollowPosition(t *testing.T) {
	f := newFixture(t)
	e := f.w.NewEntity()
	ecs.Add[Tag](f.w, e)
	k, _ := resource.KeyOf[State](f.w, e)
	buf := f.lights.At(k).Shadow
	before := append([]byte(nil), f.backend.BufferData(buf)...)

	ecs.Set(f.w, e, Position{XYZ: [3]float32{0, 4, 0}})
	after := f.backend.BufferData(buf)
	if string(before) == string(after) {
		t.Error("shadow uniform not rewritten after a move")
	}
	if f.lights.At(k).Shadow != buf {
		t.Error("shadow buffer replaced")
	}

	// The +X face maps a point one unit along +X to the centre of clip space.
	var u GPUCubeShadowUniform
	u.ComputeFaces([3]float32{}, 5)
	vp := u.FaceVP[0]
	x := vp[0]*1 + vp[12]
	y := vp[1]*1 + vp[13]
	w := vp[3]*1 + vp[15]
	if w == 0 || abs(x/w) > 1e-5 || abs(y/w) > 1e-5 {
		t.Errorf("+X face centre projects to (%v, %v)", x/w, y/w)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
