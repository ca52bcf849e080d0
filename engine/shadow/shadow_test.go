package shadow

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/light"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/material"
	"github.com/Carmen-Shannon/oxy-gpu/engine/mesh"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

type assets struct{}

func (assets) LoadMesh(string) ([]loader.Vertex, []uint32, error) {
	return make([]loader.Vertex, 3), []uint32{0, 1, 2}, nil
}

func (assets) LoadImage(string) (loader.Image, error) {
	return loader.Image{Width: 1, Height: 1, Pixels: make([]byte, 4)}, nil
}

type fixture struct {
	w       *ecs.World
	backend *memgpu.Backend
	lights  *light.Manager
	models  *model.Manager
	shadows *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := ecs.NewWorld()
	backend := memgpu.New()
	sampler, _ := backend.CreateSampler(gpu.SamplerDescriptor{})
	viewports := viewport.NewManager(w, backend)
	deps := model.Dependencies{
		Meshes:    mesh.NewManager(w, backend, assets{}),
		Materials: material.NewManager(w, backend, nil),
		Textures:  texture.NewManager(w, backend, assets{}),
		Viewports: viewports,
		Sampler:   sampler,
	}
	f := &fixture{w: w, backend: backend}
	f.lights = light.NewManager(w, backend, viewports, nil)
	f.models = model.NewManager(w, backend, deps, nil)
	f.shadows = NewManager(backend, f.lights, f.models, WithResolution(64))
	return f
}

func (f *fixture) spawnLight() (ecs.Entity, slot.Key) {
	e := f.w.NewEntity()
	ecs.Add[light.Tag](f.w, e)
	k, _ := resource.KeyOf[light.State](f.w, e)
	return e, k
}

func (f *fixture) spawnModel() (ecs.Entity, slot.Key) {
	e := f.w.NewEntity()
	ecs.Add[model.Tag](f.w, e)
	k, _ := resource.KeyOf[model.State](f.w, e)
	return e, k
}

// flush drains the queues in the scene's post-frame order.
func (f *fixture) flush() {
	f.shadows.Pairs.Flush()
	f.models.Flush()
	f.lights.Flush()
	f.shadows.Cubes.Flush()
}

func TestPairsCreatedForEveryLightModel(t *testing.T) {
	f := newFixture(t)
	_, l1 := f.spawnLight()
	_, m1 := f.spawnModel()
	_, m2 := f.spawnModel()
	_, l2 := f.spawnLight()

	if f.shadows.Pairs.Len() != 0 {
		t.Fatal("pairs created inside the hooks")
	}
	if n := f.shadows.Create(); n != 4 {
		t.Fatalf("Create = %d, want 4", n)
	}
	for _, lk := range []slot.Key{l1, l2} {
		for _, mk := range []slot.Key{m1, m2} {
			p, ok := f.shadows.PairOf(lk, mk)
			if !ok || !p.Heap.Valid() {
				t.Errorf("pair (%v, %v) missing", lk, mk)
			}
		}
	}
	if f.shadows.Create() != 0 {
		t.Error("second Create built pairs again")
	}

	desc := f.backend.RenderTargetDesc(f.shadows.Cubes.At(f.shadows.cubeOf[l1]).Target)
	if !desc.Cube || desc.Layers != 6 || desc.Width != 64 {
		t.Errorf("cube descriptor = %+v", desc)
	}
	if f.shadows.SlotOf(l1) != 0 || f.shadows.SlotOf(l2) != 1 {
		t.Errorf("slots = %d, %d", f.shadows.SlotOf(l1), f.shadows.SlotOf(l2))
	}
}

func TestRemovalIsDeferred(t *testing.T) {
	f := newFixture(t)
	le, lk := f.spawnLight()
	me, mk := f.spawnModel()
	f.shadows.Create()

	f.w.Destroy(me)
	if _, ok := f.shadows.PairOf(lk, mk); !ok {
		t.Fatal("pair dropped before flush")
	}
	f.flush()
	if _, ok := f.shadows.PairOf(lk, mk); ok {
		t.Error("pair survived flush")
	}
	if f.backend.Live(memgpu.KindResourceHeap) != 0 {
		t.Error("pair heap leaked")
	}

	f.w.Destroy(le)
	if f.backend.Live(memgpu.KindRenderTarget) != 1 {
		t.Error("cube released before flush")
	}
	f.flush()
	if f.backend.Live(memgpu.KindRenderTarget) != 0 || f.shadows.SlotOf(lk) != NoSlot {
		t.Error("cube or slot not released")
	}
}

func TestPendingPairSkippedWhenEndpointRetires(t *testing.T) {
	f := newFixture(t)
	f.spawnLight()
	me, _ := f.spawnModel()
	f.w.Destroy(me)
	if n := f.shadows.Create(); n != 0 {
		t.Errorf("Create = %d, want 0", n)
	}
}

func TestSlotCapAndPromotion(t *testing.T) {
	f := newFixture(t)
	entities := make([]ecs.Entity, MaxSlots+2)
	keys := make([]slot.Key, MaxSlots+2)
	for i := range entities {
		entities[i], keys[i] = f.spawnLight()
	}
	if got := f.shadows.Cubes.Len(); got != MaxSlots {
		t.Fatalf("cubes = %d, want %d", got, MaxSlots)
	}
	if f.shadows.SlotOf(keys[MaxSlots]) != NoSlot {
		t.Fatal("light past the cap got a slot")
	}

	f.w.Destroy(entities[3])
	f.flush()
	if got := f.shadows.SlotOf(keys[MaxSlots]); got != 3 {
		t.Errorf("promoted light slot = %d, want 3", got)
	}
	if f.shadows.SlotOf(keys[MaxSlots+1]) != NoSlot {
		t.Error("second waiting light promoted without a free slot")
	}
}
