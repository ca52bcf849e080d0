package mesh

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
)

type fakeMeshes map[string]int

func (f fakeMeshes) LoadMesh(path string) ([]loader.Vertex, []uint32, error) {
	n, ok := f[path]
	if !ok {
		return nil, nil, errors.New("no such mesh")
	}
	vertices := make([]loader.Vertex, n)
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return vertices, indices, nil
}

func TestMeshLifecycle(t *testing.T) {
	w := ecs.NewWorld()
	backend := memgpu.New()
	m := NewManager(w, backend, fakeMeshes{DefaultPath: 3, "tri.obj": 6})

	e := w.NewEntity()
	ecs.Add[Tag](w, e)
	k, ok := resource.KeyOf[State](w, e)
	if !ok {
		t.Fatal("mesh not initialized")
	}
	st := m.At(k)
	if st.Path != DefaultPath || st.IndexCount != 3 {
		t.Fatalf("state = %+v", st)
	}
	if backend.Live(memgpu.KindBuffer) != 2 {
		t.Fatalf("live buffers = %d, want 2", backend.Live(memgpu.KindBuffer))
	}

	ecs.Set(w, e, Path{Name: "tri.obj"})
	st = m.At(k)
	if st.Path != "tri.obj" || st.IndexCount != 6 {
		t.Errorf("after path change state = %+v", st)
	}
	if backend.Live(memgpu.KindBuffer) != 2 {
		t.Errorf("old buffers leaked: live = %d", backend.Live(memgpu.KindBuffer))
	}

	before := *m.At(k)
	ecs.Set(w, e, Path{Name: "missing.obj"})
	if *m.At(k) != before {
		t.Error("failed load changed the state")
	}

	ecs.Remove[Tag](w, e)
	if backend.Live(memgpu.KindBuffer) != 2 {
		t.Error("buffers released before flush")
	}
	m.Flush()
	if backend.Live(memgpu.KindBuffer) != 0 {
		t.Errorf("live buffers after flush = %d", backend.Live(memgpu.KindBuffer))
	}
}

func TestMeshCreateFallsBackToDefault(t *testing.T) {
	w := ecs.NewWorld()
	m := NewManager(w, memgpu.New(), fakeMeshes{"base.obj": 3}, WithDefaultPath("base.obj"))

	e := w.NewEntity()
	ecs.Set(w, e, Path{Name: "missing.obj"})
	ecs.Add[Tag](w, e)
	k, _ := resource.KeyOf[State](w, e)
	if got := m.At(k).Path; got != "base.obj" {
		t.Errorf("path = %q, want base.obj", got)
	}
}
