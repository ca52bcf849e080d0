package viewport

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu/memgpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
)

type lightList []GPUPointLight

func (l lightList) EachLight(_ slot.Key, fn func(GPUPointLight)) {
	for _, light := range l {
		fn(light)
	}
}

func setup(t *testing.T) (*ecs.World, *memgpu.Backend, *Manager, ecs.Entity, slot.Key) {
	t.Helper()
	w := ecs.NewWorld()
	backend := memgpu.New()
	m := NewManager(w, backend)
	e := w.NewEntity()
	ecs.Add[Tag](w, e)
	k, ok := resource.KeyOf[State](w, e)
	if !ok {
		t.Fatal("viewport not initialized")
	}
	return w, backend, m, e, k
}

func TestDirtyTransitions(t *testing.T) {
	w, backend, m, e, k := setup(t)

	if got := m.At(k).Dirty; got != Both {
		t.Fatalf("new viewport state = %v, want Both", got)
	}
	m.Upload(nil)
	if got := m.At(k).Dirty; got != Clean {
		t.Fatalf("after upload state = %v, want Clean", got)
	}
	if m.Prepare(k) {
		t.Fatal("Prepare on a clean viewport mapped the buffer")
	}

	ecs.Set(w, e, Position{XYZ: [3]float32{1, 2, 3}})
	if got := m.At(k).Dirty; got != CameraDirty {
		t.Errorf("after position write state = %v, want CameraDirty", got)
	}
	m.MarkLightDirty(k)
	if got := m.At(k).Dirty; got != Both {
		t.Errorf("after light mark state = %v, want Both", got)
	}

	if !m.Prepare(k) || !backend.IsMapped(m.At(k).Buffer) {
		t.Fatal("Prepare did not map a dirty viewport")
	}
	m.UpdateCamera(k)
	m.Finish(k)
	st := m.At(k)
	if st.Dirty != Clean || st.Cursor != 0 || st.Mapped() || backend.IsMapped(st.Buffer) {
		t.Errorf("after Finish state = %+v", st)
	}
}

func TestCameraOnlyLeavesLights(t *testing.T) {
	w, backend, m, e, k := setup(t)
	m.Upload(lightList{{Intensity: 7}})
	data := backend.BufferData(m.At(k).Buffer)
	if ReadPointLight(data, 0).Intensity != 7 {
		t.Fatal("light not written")
	}

	ecs.Set(w, e, Rotation{Yaw: 0.5})
	m.Upload(lightList{})
	if ReadPointLight(data, 0).Intensity != 7 {
		t.Error("camera-only upload rewrote the light section")
	}
}

func TestLookAt(t *testing.T) {
	w, backend, m, e, k := setup(t)
	ecs.Set(w, e, Position{XYZ: [3]float32{1, 2, 3}})
	ecs.Set(w, e, Rotation{})
	m.Upload(nil)

	data := backend.BufferData(m.At(k).Buffer)
	// Yaw 0 and pitch 0 look down -Z, so the view is a pure translation by -position.
	want := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, -1, -2, -3, 1}
	for i, v := range want {
		if got := common.Float32At(data, ViewOffset+i*4); got != v {
			t.Fatalf("view[%d] = %v, want %v", i, got, v)
		}
	}
}

func TestUnusedSlotsZeroed(t *testing.T) {
	_, backend, m, _, k := setup(t)
	full := make(lightList, 5)
	for i := range full {
		full[i] = GPUPointLight{Intensity: 1, Distance: 5}
	}
	m.Upload(full)

	m.MarkLightDirty(k)
	m.Upload(full[:3])
	data := backend.BufferData(m.At(k).Buffer)
	for i := 0; i < 3; i++ {
		if ReadPointLight(data, i).Intensity != 1 {
			t.Errorf("slot %d intensity = %v, want 1", i, ReadPointLight(data, i).Intensity)
		}
	}
	for i := 3; i < MaxLights; i++ {
		if got := ReadPointLight(data, i); got != (GPUPointLight{}) {
			t.Errorf("slot %d = %+v, want zero", i, got)
		}
	}
}

func TestLightOverflowCapped(t *testing.T) {
	_, backend, m, _, k := setup(t)
	many := make(lightList, MaxLights+8)
	for i := range many {
		many[i] = GPUPointLight{Intensity: float32(i + 1)}
	}
	m.Upload(many)
	data := backend.BufferData(m.At(k).Buffer)
	if got := ReadPointLight(data, MaxLights-1).Intensity; got != MaxLights {
		t.Errorf("last slot intensity = %v, want %d", got, MaxLights)
	}
	if len(data) != GPUViewportSize {
		t.Errorf("uniform size = %d, want %d", len(data), GPUViewportSize)
	}
}

func TestWindowViolationsPanic(t *testing.T) {
	_, _, m, _, k := setup(t)
	for name, fn := range map[string]func(){
		"UpdateCamera": func() { m.UpdateCamera(k) },
		"UpdateLight":  func() { m.UpdateLight(k, GPUPointLight{}) },
		"Finish":       func() { m.Finish(k) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s outside the window did not panic", name)
				}
			}()
			fn()
		}()
	}
}

func TestReleaseWhileMapped(t *testing.T) {
	w, backend, m, e, k := setup(t)
	m.Prepare(k)
	w.Destroy(e)
	m.Flush()
	if backend.Live(memgpu.KindBuffer) != 0 {
		t.Error("viewport buffer leaked")
	}
}
