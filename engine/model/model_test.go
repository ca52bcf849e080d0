package model

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/material"
	"github.com/Carmen-Shannon/oxy-gpu/engine/mesh"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

type assets struct{}

func (assets) LoadMesh(path string) ([]loader.Vertex, []uint32, error) {
	return make([]loader.Vertex, 3), []uint32{0, 1, 2}, nil
}

func (assets) LoadImage(path string) (loader.Image, error) {
	if path == "missing.png" {
		return loader.Image{}, errors.New("missing")
	}
	return loader.Image{Width: 1, Height: 1, Pixels: make([]byte, 4)}, nil
}

type fixture struct {
	w       *ecs.World
	backend *memgpu.Backend
	deps    Dependencies
	models  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := ecs.NewWorld()
	backend := memgpu.New()
	sampler, err := backend.CreateSampler(gpu.SamplerDescriptor{Linear: true})
	if err != nil {
		t.Fatal(err)
	}
	deps := Dependencies{
		Meshes:    mesh.NewManager(w, backend, assets{}),
		Materials: material.NewManager(w, backend, nil),
		Textures:  texture.NewManager(w, backend, assets{}),
		Viewports: viewport.NewManager(w, backend),
		Sampler:   sampler,
	}
	f := &fixture{w: w, backend: backend, deps: deps}
	f.models = NewManager(w, backend, deps, nil)

	presets := w.NewEntity()
	ecs.Add[mesh.Tag](w, presets)
	ecs.Add[material.Tag](w, presets)
	ecs.Add[texture.Tag](w, presets)
	ecs.Add[viewport.Tag](w, presets)
	presetKey := func(k slot.Key, _ bool) slot.Key { return k }
	deps.Meshes.SetPreset(presetKey(resource.KeyOf[mesh.State](w, presets)))
	deps.Materials.SetPreset(presetKey(resource.KeyOf[material.State](w, presets)))
	deps.Textures.SetPreset(presetKey(resource.KeyOf[texture.State](w, presets)))
	deps.Viewports.SetPreset(presetKey(resource.KeyOf[viewport.State](w, presets)))
	return f
}

func (f *fixture) spawn(refs ...any) (ecs.Entity, slot.Key) {
	e := f.w.NewEntity()
	for _, r := range refs {
		switch r := r.(type) {
		case MaterialRef:
			ecs.Set(f.w, e, r)
		case TextureRef:
			ecs.Set(f.w, e, r)
		case ViewportRef:
			ecs.Set(f.w, e, r)
		}
	}
	ecs.Add[Tag](f.w, e)
	k, _ := resource.KeyOf[State](f.w, e)
	return e, k
}

func TestHeapBuiltFromPresets(t *testing.T) {
	f := newFixture(t)
	_, k := f.spawn()
	if n := f.models.Rebuild(); n != 1 {
		t.Fatalf("Rebuild = %d, want 1", n)
	}
	st := f.models.At(k)
	if !st.Heap.Valid() || st.Dirty {
		t.Fatalf("state = %+v", st)
	}
	preset := f.deps.Textures.At(f.deps.Textures.Preset())
	if st.Bound.Texture != preset.Texture {
		t.Error("heap does not bind the preset texture")
	}
	bindings := f.backend.HeapBindings(st.Heap)
	if bindings[BindingTransform].Buffer != st.Transform {
		t.Error("transform slot does not bind the model's transform buffer")
	}
}

func TestTransformUpdateKeepsHeap(t *testing.T) {
	f := newFixture(t)
	e, k := f.spawn()
	f.models.Rebuild()
	heap := f.models.At(k).Heap

	for i := 0; i < 10; i++ {
		ecs.Set(f.w, e, Transform{Position: [3]float32{float32(i), 0, 0}, Scale: [3]float32{1, 1, 1}})
		f.models.Rebuild()
	}
	if f.models.At(k).Heap != heap {
		t.Error("transform updates replaced the heap")
	}
	if f.backend.Created(memgpu.KindResourceHeap) != 1 {
		t.Errorf("heaps created = %d, want 1", f.backend.Created(memgpu.KindResourceHeap))
	}
}

func TestSharedMaterialColourKeepsHeaps(t *testing.T) {
	f := newFixture(t)
	mat := f.w.NewEntity()
	ecs.Add[material.Tag](f.w, mat)
	_, a := f.spawn(MaterialRef{Entity: mat})
	_, b := f.spawn(MaterialRef{Entity: mat})
	f.models.Rebuild()
	ha, hb := f.models.At(a).Heap, f.models.At(b).Heap

	ecs.Set(f.w, mat, material.DiffuseColor{RGBA: [4]float32{0, 1, 0, 1}})
	if n := f.models.Rebuild(); n != 0 {
		t.Errorf("Rebuild after colour change = %d, want 0", n)
	}
	if f.models.At(a).Heap != ha || f.models.At(b).Heap != hb {
		t.Error("colour change replaced a heap")
	}
}

func TestTextureSwapRebuilds(t *testing.T) {
	f := newFixture(t)
	tex := f.w.NewEntity()
	ecs.Add[texture.Tag](f.w, tex)
	_, k := f.spawn(TextureRef{Entity: tex})
	f.models.Rebuild()
	old := f.models.At(k).Heap

	ecs.Set(f.w, tex, texture.Path{Name: "brick.png"})
	if !f.models.At(k).Dirty {
		t.Fatal("texture replacement did not mark the model dirty")
	}
	if n := f.models.Rebuild(); n != 1 {
		t.Fatalf("Rebuild = %d, want 1", n)
	}
	st := f.models.At(k)
	tk, _ := resource.KeyOf[texture.State](f.w, tex)
	if st.Heap == old || st.Bound.Texture != f.deps.Textures.At(tk).Texture {
		t.Errorf("heap not rebuilt: %+v", st)
	}
	if f.backend.Live(memgpu.KindResourceHeap) != 1 {
		t.Errorf("live heaps = %d, want 1", f.backend.Live(memgpu.KindResourceHeap))
	}

	// A failed load keeps the texture, so the heap stays.
	ecs.Set(f.w, tex, texture.Path{Name: "missing.png"})
	if n := f.models.Rebuild(); n != 0 {
		t.Errorf("Rebuild after failed load = %d, want 0", n)
	}
}

func TestLateDependencyAndRetirement(t *testing.T) {
	f := newFixture(t)
	tex := f.w.NewEntity()
	_, k := f.spawn(TextureRef{Entity: tex})
	f.models.Rebuild()
	preset := f.deps.Textures.At(f.deps.Textures.Preset()).Texture
	if f.models.At(k).Bound.Texture != preset {
		t.Fatal("uninitialized texture did not fall back to the preset")
	}

	ecs.Add[texture.Tag](f.w, tex)
	f.models.Rebuild()
	tk, _ := resource.KeyOf[texture.State](f.w, tex)
	own := f.deps.Textures.At(tk).Texture
	if f.models.At(k).Bound.Texture != own {
		t.Fatal("model did not pick up its texture once initialized")
	}

	ecs.Remove[texture.Tag](f.w, tex)
	f.models.Rebuild()
	if f.models.At(k).Bound.Texture != preset {
		t.Error("retiring texture still bound")
	}
	f.deps.Textures.Flush()
	if f.backend.Live(memgpu.KindResourceHeap) != 1 {
		t.Errorf("live heaps = %d, want 1", f.backend.Live(memgpu.KindResourceHeap))
	}
}

func TestModelRemovalDeferred(t *testing.T) {
	f := newFixture(t)
	e, k := f.spawn()
	f.models.Rebuild()
	f.w.Destroy(e)
	if !f.models.Find(k) {
		t.Fatal("model erased before flush")
	}
	if f.models.Rebuild() != 0 {
		t.Error("retiring model rebuilt")
	}
	f.models.Flush()
	if f.models.Find(k) {
		t.Error("model survived flush")
	}
	if f.backend.Live(memgpu.KindResourceHeap) != 0 {
		t.Error("heap leaked")
	}
}

func TestEachDraw(t *testing.T) {
	f := newFixture(t)
	f.spawn()
	f.spawn()
	f.models.Rebuild()
	n := 0
	f.models.EachDraw(func(d Draw) {
		if d.Mesh.IndexCount != 3 || !d.Heap.Valid() {
			t.Errorf("draw = %+v", d)
		}
		n++
	})
	if n != 2 {
		t.Errorf("draws = %d, want 2", n)
	}
}
