// package model manages renderable model entities: their transform uniforms and the
// resource heap binding everything a model draw reads.
//
// A heap is rebuilt only when the set of handles it should bind differs from the set it
// binds. Transform and material colour edits write existing buffers in place and never
// trigger a rebuild; texture replacement and reference changes do.
package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/material"
	"github.com/Carmen-Shannon/oxy-gpu/engine/mesh"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
	"go.uber.org/zap"
)

// Tag marks an entity as a renderable model.
type Tag struct{}

// Transform is the decomposed model-to-world transform: translation, Euler rotation in
// radians (applied Y, X, Z) and per-axis scale.
type Transform struct {
	Position [3]float32
	Rotation [3]float32
	Scale    [3]float32
}

// IdentityTransform places a model at the origin with unit scale.
var IdentityTransform = Transform{Scale: [3]float32{1, 1, 1}}

// MeshRef points a model at a mesh entity.
type MeshRef struct{ Entity ecs.Entity }

// MaterialRef points a model at a material entity.
type MaterialRef struct{ Entity ecs.Entity }

// TextureRef points a model at a texture entity.
type TextureRef struct{ Entity ecs.Entity }

// ViewportRef points a model at the viewport it is drawn in.
type ViewportRef struct{ Entity ecs.Entity }

// Refs are the entities a model depends on; the zero Entity selects the preset.
type Refs struct {
	Mesh     ecs.Entity
	Material ecs.Entity
	Texture  ecs.Entity
	Viewport ecs.Entity
}

// State is the record of one model.
type State struct {
	Transform gpu.Buffer
	Heap      gpu.ResourceHeap
	Bound     HandleSet
	Refs      Refs
	// Dirty asks the rebuild pass to compare the bound handles against the desired ones.
	Dirty bool

	// keys resolved at the last rebuild, used to route dependency notifications.
	material slot.Key
	texture  slot.Key
	viewport slot.Key
}

// Dependencies bundles the managers a model resolves its references against.
type Dependencies struct {
	Meshes    *mesh.Manager
	Materials *material.Manager
	Textures  *texture.Manager
	Viewports *viewport.Manager
	// Sampler is shared by every model heap.
	Sampler gpu.Sampler
}

// Manager owns every model record of a world.
type Manager struct {
	*resource.Manager[State]

	world    *ecs.World
	backend  gpu.Backend
	deps     Dependencies
	rebuilds int
	log      *zap.Logger
}

// NewManager creates the model manager, registers its hooks on w and subscribes to the
// dependency managers' notifications.
//
// Parameters:
//   - w: the world whose model entities are managed
//   - backend: the graphics backend
//   - deps: the dependency managers and the shared sampler
//   - log: the parent logger, or nil
//
// Returns:
//   - *Manager: the new manager
func NewManager(w *ecs.World, backend gpu.Backend, deps Dependencies, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		world:   w,
		backend: backend,
		deps:    deps,
		log:     log.Named("model"),
	}
	m.Manager = resource.NewManager("model",
		resource.WithLogger[State](log),
		resource.WithRelease(func(st *State) {
			if st.Heap.Valid() {
				backend.ReleaseResourceHeap(st.Heap)
			}
			backend.ReleaseBuffer(st.Transform)
		}),
	)

	resource.Track[Tag](w, m.Manager, m.create)
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, t *Transform) {
		var data GPUModelData
		data.FromTransform(*t)
		m.backend.WriteBuffer(st.Transform, 0, data.Marshal())
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, r *MeshRef) {
		st.Refs.Mesh = r.Entity
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, r *MaterialRef) {
		st.Refs.Material = r.Entity
		st.Dirty = true
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, r *TextureRef) {
		st.Refs.Texture = r.Entity
		st.Dirty = true
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, r *ViewportRef) {
		st.Refs.Viewport = r.Entity
		st.Dirty = true
	})

	watch(m, deps.Textures.Manager, func(st *State) (slot.Key, ecs.Entity) { return st.texture, st.Refs.Texture })
	watch(m, deps.Materials.Manager, func(st *State) (slot.Key, ecs.Entity) { return st.material, st.Refs.Material })
	watch(m, deps.Viewports.Manager, func(st *State) (slot.Key, ecs.Entity) { return st.viewport, st.Refs.Viewport })
	return m
}

// watch marks models dirty when a dependency they bind, or the one they reference, is
// inserted, replaced, retired or erased.
func watch[T any](m *Manager, dep *resource.Manager[T], ref func(st *State) (slot.Key, ecs.Entity)) {
	mark := func(k slot.Key) {
		m.Each(func(_ slot.Key, st *State) {
			if st.Dirty {
				return
			}
			bound, e := ref(st)
			if bound == k {
				st.Dirty = true
				return
			}
			if rk, ok := resource.KeyOf[T](m.world, e); ok && rk == k {
				st.Dirty = true
			}
		})
	}
	dep.OnInsert(mark)
	dep.OnChange(mark)
	dep.OnRetire(mark)
	dep.OnErase(mark)
}

func (m *Manager) create(e ecs.Entity) State {
	t := IdentityTransform
	if tc, ok := ecs.Get[Transform](m.world, e); ok {
		t = *tc
	}
	var data GPUModelData
	data.FromTransform(t)
	buf, err := m.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "model_transform",
		Size:  uint64(data.Size()),
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	}, data.Marshal())
	if err != nil {
		panic(fmt.Errorf("model: failed to create transform buffer: %w", err))
	}

	st := State{
		Transform: buf,
		Dirty:     true,
		material:  slot.NullKey,
		texture:   slot.NullKey,
		viewport:  slot.NullKey,
	}
	if r, ok := ecs.Get[MeshRef](m.world, e); ok {
		st.Refs.Mesh = r.Entity
	}
	if r, ok := ecs.Get[MaterialRef](m.world, e); ok {
		st.Refs.Material = r.Entity
	}
	if r, ok := ecs.Get[TextureRef](m.world, e); ok {
		st.Refs.Texture = r.Entity
	}
	if r, ok := ecs.Get[ViewportRef](m.world, e); ok {
		st.Refs.Viewport = r.Entity
	}
	return st
}

// desired resolves the handles st should bind. Unresolvable references fall back to the
// presets of the dependency managers.
func (m *Manager) desired(st *State) (HandleSet, slot.Key, slot.Key, slot.Key) {
	hs := HandleSet{Transform: st.Transform, Sampler: m.deps.Sampler}

	vk := resource.Resolve(m.world, m.deps.Viewports.Manager, st.Refs.Viewport)
	if vp, ok := m.deps.Viewports.Get(vk); ok {
		hs.Viewport = vp.Buffer
	}
	mk := resource.Resolve(m.world, m.deps.Materials.Manager, st.Refs.Material)
	if mat, ok := m.deps.Materials.Get(mk); ok {
		hs.Material = mat.Buffer
	}
	tk := resource.Resolve(m.world, m.deps.Textures.Manager, st.Refs.Texture)
	if tex, ok := m.deps.Textures.Get(tk); ok {
		hs.Texture = tex.Texture
	}
	return hs, vk, mk, tk
}

// Rebuild brings the heap of every dirty model up to date. A heap is released and
// recreated only when its handle set changed.
//
// Returns:
//   - int: the number of heaps created
func (m *Manager) Rebuild() int {
	n := 0
	m.Each(func(k slot.Key, st *State) {
		if !st.Dirty || m.Retiring(k) {
			return
		}
		hs, vk, mk, tk := m.desired(st)
		st.viewport, st.material, st.texture = vk, mk, tk
		if st.Heap.Valid() && hs == st.Bound {
			st.Dirty = false
			return
		}
		if !hs.Complete() {
			m.log.Debug("heap dependencies unavailable", zap.Stringer("model", k))
			return
		}
		if st.Heap.Valid() {
			m.backend.ReleaseResourceHeap(st.Heap)
			st.Heap = gpu.ResourceHeap{}
		}
		heap, err := m.backend.CreateResourceHeap(HeapLayout, hs.Bindings())
		if err != nil {
			panic(fmt.Errorf("model %v: failed to create resource heap: %w", k, err))
		}
		st.Heap = heap
		st.Bound = hs
		st.Dirty = false
		n++
	})
	m.rebuilds += n
	return n
}

// Rebuilds returns the number of heaps created over the manager's lifetime.
func (m *Manager) Rebuilds() int {
	return m.rebuilds
}

// Draw describes what one model draw binds.
type Draw struct {
	Model    slot.Key
	Heap     gpu.ResourceHeap
	Viewport slot.Key
	Mesh     mesh.State
}

// EachDraw calls fn for every model with a built heap and a usable mesh.
func (m *Manager) EachDraw(fn func(d Draw)) {
	m.Each(func(k slot.Key, st *State) {
		if !st.Heap.Valid() || m.Retiring(k) {
			return
		}
		mk := resource.Resolve(m.world, m.deps.Meshes.Manager, st.Refs.Mesh)
		ms, ok := m.deps.Meshes.Get(mk)
		if !ok || !ms.Indices.Valid() {
			return
		}
		fn(Draw{Model: k, Heap: st.Heap, Viewport: st.viewport, Mesh: *ms})
	})
}
