package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
)

func TestMaterialColourWrittenInPlace(t *testing.T) {
	w := ecs.NewWorld()
	backend := memgpu.New()
	m := NewManager(w, backend, nil)

	e := w.NewEntity()
	ecs.Add[Tag](w, e)
	k, _ := resource.KeyOf[State](w, e)
	buf := m.At(k).Buffer
	data := backend.BufferData(buf)
	for i := 0; i < 4; i++ {
		if got := common.Float32At(data, i*4); got != 1 {
			t.Fatalf("default channel %d = %v, want 1", i, got)
		}
	}

	ecs.Set(w, e, DiffuseColor{RGBA: [4]float32{1, 0, 0, 1}})
	if m.At(k).Buffer != buf {
		t.Error("colour change replaced the buffer")
	}
	data = backend.BufferData(buf)
	if common.Float32At(data, 4) != 0 || common.Float32At(data, 0) != 1 {
		t.Errorf("buffer = % x", data)
	}
	if backend.Created(memgpu.KindBuffer) != 1 {
		t.Errorf("buffers created = %d, want 1", backend.Created(memgpu.KindBuffer))
	}
}
