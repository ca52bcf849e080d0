// package light manages point-light entities: their shadow uniforms and their membership
// in a viewport's light list.
//
// Every change to a light flags the light section of its viewport dirty; the viewport
// upload pulls the current light values through the Manager's EachLight.
package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
	"go.uber.org/zap"
)

// DefaultColor is the colour of a light without a Color component.
var DefaultColor = [3]float32{1, 1, 1}

// Defaults applied to a light whose components are not set.
const (
	DefaultIntensity float32 = 1
	DefaultDistance  float32 = 5
)

// Tag marks an entity as a point light.
type Tag struct{}

// Position is the world-space position of a light.
type Position struct {
	XYZ [3]float32
}

// Color is the RGB colour of a light.
type Color struct {
	RGB [3]float32
}

// Intensity scales a light's contribution.
type Intensity struct {
	Value float32
}

// Distance is the reach of a light, also the far plane of its shadow faces.
type Distance struct {
	Value float32
}

// ViewportRef associates a light with a viewport entity. Lights without one, or whose
// viewport is not initialized, belong to the preset viewport.
type ViewportRef struct {
	Entity ecs.Entity
}

// State is the record of one light.
type State struct {
	Position  [3]float32
	Color     [3]float32
	Intensity float32
	Distance  float32
	Viewport  ecs.Entity

	// fed is the viewport the light was last listed under.
	fed slot.Key

	// Shadow holds the six cube-face view-projections.
	Shadow gpu.Buffer
}

// GPU returns the viewport light slot data of the light.
func (s *State) GPU() viewport.GPUPointLight {
	return viewport.GPUPointLight{
		Position:  s.Position,
		Color:     s.Color,
		Intensity: s.Intensity,
		Distance:  s.Distance,
	}
}

// Manager owns every light record of a world.
type Manager struct {
	*resource.Manager[State]

	world     *ecs.World
	backend   gpu.Backend
	viewports *viewport.Manager
	log       *zap.Logger
}

var _ viewport.LightSource = &Manager{}

// NewManager creates the light manager and registers its hooks on w.
//
// Parameters:
//   - w: the world whose light entities are managed
//   - backend: the graphics backend
//   - viewports: the viewport manager whose light sections the lights feed
//   - log: the parent logger, or nil
//
// Returns:
//   - *Manager: the new manager
func NewManager(w *ecs.World, backend gpu.Backend, viewports *viewport.Manager, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		world:     w,
		backend:   backend,
		viewports: viewports,
		log:       log.Named("light"),
	}
	m.Manager = resource.NewManager("light",
		resource.WithLogger[State](log),
		resource.WithRelease(func(st *State) {
			backend.ReleaseBuffer(st.Shadow)
		}),
	)

	resource.Track[Tag](w, m.Manager, m.create)
	m.OnInsert(func(k slot.Key) { m.markViewport(m.At(k)) })
	m.OnRetire(func(k slot.Key) { m.markViewport(m.At(k)) })

	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, p *Position) {
		st.Position = p.XYZ
		m.writeShadow(st)
		m.markViewport(st)
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, c *Color) {
		st.Color = c.RGB
		m.markViewport(st)
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, i *Intensity) {
		st.Intensity = i.Value
		m.markViewport(st)
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, d *Distance) {
		st.Distance = d.Value
		m.writeShadow(st)
		m.markViewport(st)
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, r *ViewportRef) {
		st.Viewport = r.Entity
		m.markViewport(st)
	})

	// A light follows its viewport entity in and out of initialization.
	viewports.OnInsert(func(slot.Key) { m.rebind() })
	viewports.OnRetire(func(slot.Key) { m.rebind() })
	return m
}

func (m *Manager) create(e ecs.Entity) State {
	st := State{
		Color:     DefaultColor,
		Intensity: DefaultIntensity,
		Distance:  DefaultDistance,
		fed:       slot.NullKey,
	}
	if p, ok := ecs.Get[Position](m.world, e); ok {
		st.Position = p.XYZ
	}
	if c, ok := ecs.Get[Color](m.world, e); ok {
		st.Color = c.RGB
	}
	if i, ok := ecs.Get[Intensity](m.world, e); ok {
		st.Intensity = i.Value
	}
	if d, ok := ecs.Get[Distance](m.world, e); ok {
		st.Distance = d.Value
	}
	if r, ok := ecs.Get[ViewportRef](m.world, e); ok {
		st.Viewport = r.Entity
	}

	buf, err := m.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "light_shadow_uniform",
		Size:  GPUCubeShadowUniformSize,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	}, m.shadowData(&st))
	if err != nil {
		panic(fmt.Errorf("light: failed to create shadow uniform: %w", err))
	}
	st.Shadow = buf
	return st
}

func (m *Manager) shadowData(st *State) []byte {
	var u GPUCubeShadowUniform
	u.ComputeFaces(st.Position, st.Distance)
	return u.Marshal()
}

func (m *Manager) writeShadow(st *State) {
	m.backend.WriteBuffer(st.Shadow, 0, m.shadowData(st))
}

// ViewportOf returns the viewport key the light record st currently feeds.
func (m *Manager) ViewportOf(st *State) slot.Key {
	return resource.Resolve(m.world, m.viewports.Manager, st.Viewport)
}

// markViewport flags the light section of the viewport st feeds, and of the one it
// fed before if that changed.
func (m *Manager) markViewport(st *State) {
	vk := m.ViewportOf(st)
	if vk != st.fed {
		m.viewports.MarkLightDirty(st.fed)
		st.fed = vk
	}
	m.viewports.MarkLightDirty(vk)
}

// rebind re-resolves every light after a viewport was inserted or retired.
func (m *Manager) rebind() {
	m.Each(func(k slot.Key, st *State) {
		if m.ViewportOf(st) != st.fed {
			m.markViewport(st)
		}
	})
}

// EachLight calls fn for every live, non-retiring light associated with viewport vk,
// in record order.
func (m *Manager) EachLight(vk slot.Key, fn func(l viewport.GPUPointLight)) {
	m.Each(func(k slot.Key, st *State) {
		if m.Retiring(k) || m.ViewportOf(st) != vk {
			return
		}
		fn(st.GPU())
	})
}
