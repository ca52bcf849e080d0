// package viewport manages the camera-and-lights uniform buffer of each viewport entity.
//
// A viewport's uniform holds its view and projection matrices followed by MaxLights point
// light slots. Writes to the camera components or to any associated light only flip dirty
// bits; the upload system rewrites the buffer once per frame through an exclusive map window
// and only touches the sections whose bits are set.
package viewport

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"go.uber.org/zap"
)

// LookDistance is how far in front of the eye the look-at origin is placed.
const LookDistance = 3

// DirtyState records which sections of a viewport uniform are stale.
type DirtyState uint8

const (
	Clean       DirtyState = 0
	CameraDirty DirtyState = 1 << 0
	LightDirty  DirtyState = 1 << 1
	Both                   = CameraDirty | LightDirty
)

func (d DirtyState) String() string {
	switch d {
	case Clean:
		return "Clean"
	case CameraDirty:
		return "CameraDirty"
	case LightDirty:
		return "LightDirty"
	case Both:
		return "Both"
	default:
		return fmt.Sprintf("DirtyState(%d)", uint8(d))
	}
}

// Tag marks an entity as a viewport.
type Tag struct{}

// Position is the world-space eye position of a viewport.
type Position struct {
	XYZ [3]float32
}

// Rotation orients a viewport: Yaw around +Y starting from -Z, Pitch toward +Y, in radians.
type Rotation struct {
	Yaw   float32
	Pitch float32
}

// Extent is the pixel size of a viewport, used for its aspect ratio.
type Extent struct {
	Width  uint32
	Height uint32
}

// State is the GPU-side record of one viewport.
type State struct {
	Buffer gpu.Buffer
	Dirty  DirtyState
	// Cursor is the next light slot UpdateLight writes.
	Cursor int

	Position [3]float32
	Rotation Rotation
	Extent   Extent

	// pData is the mapped uniform, non-nil only between Prepare and Finish.
	pData []byte
}

// Mapped reports whether the uniform's map window is open.
func (s *State) Mapped() bool {
	return s.pData != nil
}

// LightSource enumerates the lights associated with a viewport.
type LightSource interface {
	// EachLight calls fn with the uniform data of every light associated with the viewport.
	//
	// Parameters:
	//   - viewport: the viewport key
	//   - fn: receives each light
	EachLight(viewport slot.Key, fn func(l GPUPointLight))
}

// Manager owns every viewport record of a world.
type Manager struct {
	*resource.Manager[State]

	world   *ecs.World
	backend gpu.Backend
	fov     float32
	near    float32
	far     float32
	log     *zap.Logger
}

// NewManager creates the viewport manager and registers its hooks on w.
//
// Parameters:
//   - w: the world whose viewport entities are managed
//   - backend: the graphics backend
//   - options: builder options
//
// Returns:
//   - *Manager: the new manager
func NewManager(w *ecs.World, backend gpu.Backend, options ...ManagerBuilderOption) *Manager {
	m := &Manager{
		world:   w,
		backend: backend,
		fov:     45.0 * (math.Pi / 180.0),
		near:    0.1,
		far:     100.0,
		log:     zap.NewNop(),
	}
	for _, option := range options {
		option(m)
	}
	m.Manager = resource.NewManager("viewport",
		resource.WithLogger[State](m.log),
		resource.WithRelease(func(st *State) {
			if st.Mapped() {
				backend.UnmapBuffer(st.Buffer)
				st.pData = nil
			}
			backend.ReleaseBuffer(st.Buffer)
		}),
	)
	m.log = m.log.Named("viewport")

	resource.Track[Tag](w, m.Manager, m.create)
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, p *Position) {
		st.Position = p.XYZ
		st.Dirty |= CameraDirty
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, r *Rotation) {
		st.Rotation = *r
		st.Dirty |= CameraDirty
	})
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, x *Extent) {
		st.Extent = *x
		st.Dirty |= CameraDirty
	})
	return m
}

func (m *Manager) create(e ecs.Entity) State {
	st := State{
		Dirty:  Both,
		Extent: Extent{Width: 1, Height: 1},
	}
	if p, ok := ecs.Get[Position](m.world, e); ok {
		st.Position = p.XYZ
	}
	if r, ok := ecs.Get[Rotation](m.world, e); ok {
		st.Rotation = *r
	}
	if x, ok := ecs.Get[Extent](m.world, e); ok {
		st.Extent = *x
	}
	buf, err := m.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "viewport_uniform",
		Size:  GPUViewportSize,
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	}, nil)
	if err != nil {
		panic(fmt.Errorf("viewport: failed to create uniform buffer: %w", err))
	}
	st.Buffer = buf
	return st
}

// MarkLightDirty flags the light section of viewport k for rewrite. Stale keys are ignored.
func (m *Manager) MarkLightDirty(k slot.Key) {
	if st, ok := m.Get(k); ok {
		st.Dirty |= LightDirty
	}
}

// Prepare opens the map window of viewport k if any section is dirty.
//
// Parameters:
//   - k: a live viewport key
//
// Returns:
//   - bool: false if the viewport is clean and nothing was mapped
func (m *Manager) Prepare(k slot.Key) bool {
	st := m.At(k)
	if st.Dirty == Clean {
		return false
	}
	if st.Mapped() {
		panic(fmt.Sprintf("viewport %v: Prepare with the map window already open", k))
	}
	data, err := m.backend.MapBuffer(st.Buffer, gpu.MapWrite)
	if err != nil {
		panic(fmt.Errorf("viewport %v: failed to map uniform buffer: %w", k, err))
	}
	st.pData = data
	st.Cursor = 0
	return true
}

// window returns the mapped uniform of st, panicking when the window is closed.
func (m *Manager) window(k slot.Key, st *State, op string) []byte {
	if !st.Mapped() {
		panic(fmt.Sprintf("viewport %v: %s outside the map window", k, op))
	}
	return st.pData
}

// UpdateCamera writes the view and projection matrices of viewport k if its camera bit is set.
// The eye looks from its position toward position + LookDistance * direction(yaw, pitch).
func (m *Manager) UpdateCamera(k slot.Key) {
	st := m.At(k)
	if st.Dirty&CameraDirty == 0 {
		return
	}
	data := m.window(k, st, "UpdateCamera")

	dir := common.SphericalToCartesian(st.Rotation.Yaw, st.Rotation.Pitch)
	origin := [3]float32{
		st.Position[0] + LookDistance*dir[0],
		st.Position[1] + LookDistance*dir[1],
		st.Position[2] + LookDistance*dir[2],
	}
	var view, proj [16]float32
	common.LookAt(view[:], st.Position, origin, [3]float32{0, 1, 0})
	aspect := float32(1)
	if st.Extent.Height != 0 {
		aspect = float32(st.Extent.Width) / float32(st.Extent.Height)
	}
	common.Perspective(proj[:], m.fov, aspect, m.near, m.far)

	common.PutFloat32s(data, ViewOffset, view[:]...)
	common.PutFloat32s(data, ProjectionOffset, proj[:]...)
}

// UpdateLight writes l into the next light slot of viewport k if its light bit is set.
// Lights past the last slot are dropped.
func (m *Manager) UpdateLight(k slot.Key, l GPUPointLight) {
	st := m.At(k)
	if st.Dirty&LightDirty == 0 {
		return
	}
	data := m.window(k, st, "UpdateLight")
	if st.Cursor >= MaxLights {
		m.log.Debug("light slots exhausted", zap.Stringer("viewport", k))
		return
	}
	l.MarshalInto(data[LightsOffset+st.Cursor*GPUPointLightSize:])
	st.Cursor++
}

// Finish zeroes the unused light slots when the light section was rewritten, closes the
// map window and marks viewport k clean.
func (m *Manager) Finish(k slot.Key) {
	st := m.At(k)
	data := m.window(k, st, "Finish")
	if st.Dirty&LightDirty != 0 {
		clear(data[LightsOffset+st.Cursor*GPUPointLightSize:])
	}
	m.backend.UnmapBuffer(st.Buffer)
	st.pData = nil
	st.Dirty = Clean
	st.Cursor = 0
}

// Upload runs the full rewrite cycle for every dirty viewport.
//
// Parameters:
//   - lights: supplies the lights of each viewport
//
// Returns:
//   - int: the number of viewports rewritten
func (m *Manager) Upload(lights LightSource) int {
	n := 0
	for _, k := range m.Keys() {
		if m.Retiring(k) || !m.Prepare(k) {
			continue
		}
		m.UpdateCamera(k)
		if m.At(k).Dirty&LightDirty != 0 && lights != nil {
			lights.EachLight(k, func(l GPUPointLight) {
				m.UpdateLight(k, l)
			})
		}
		m.Finish(k)
		n++
	}
	return n
}

// ManagerBuilderOption is a functional option for configuring a viewport Manager.
type ManagerBuilderOption func(*Manager)

// WithFov is an option builder that sets the vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - ManagerBuilderOption: a function that sets the field of view
func WithFov(fov float32) ManagerBuilderOption {
	return func(m *Manager) {
		m.fov = fov
	}
}

// WithNear is an option builder that sets the near clipping plane distance.
func WithNear(near float32) ManagerBuilderOption {
	return func(m *Manager) {
		m.near = near
	}
}

// WithFar is an option builder that sets the far clipping plane distance.
func WithFar(far float32) ManagerBuilderOption {
	return func(m *Manager) {
		m.far = far
	}
}

// WithLogger is an option builder that sets the manager's logger.
func WithLogger(log *zap.Logger) ManagerBuilderOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
