// package material manages the uniform buffers holding material parameters.
// Colour edits are written into the existing buffer, so the buffer handle of a material
// never changes during its lifetime.
package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"go.uber.org/zap"
)

// DefaultColor is the diffuse colour of a material without a DiffuseColor: opaque white.
var DefaultColor = [4]float32{1, 1, 1, 1}

// Tag marks an entity as owning a material.
type Tag struct{}

// DiffuseColor is the RGBA diffuse colour of a material.
type DiffuseColor struct {
	RGBA [4]float32
}

// State is the GPU-side record of one material.
type State struct {
	Buffer gpu.Buffer
	Color  [4]float32
}

// Manager owns every material record of a world.
type Manager struct {
	*resource.Manager[State]

	world   *ecs.World
	backend gpu.Backend
	log     *zap.Logger
}

// NewManager creates the material manager and registers its hooks on w.
//
// Parameters:
//   - w: the world whose material entities are managed
//   - backend: the graphics backend
//   - log: the parent logger, or nil
//
// Returns:
//   - *Manager: the new manager
func NewManager(w *ecs.World, backend gpu.Backend, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{world: w, backend: backend, log: log.Named("material")}
	m.Manager = resource.NewManager("material",
		resource.WithLogger[State](log),
		resource.WithRelease(func(st *State) {
			backend.ReleaseBuffer(st.Buffer)
		}),
	)

	resource.Track[Tag](w, m.Manager, m.create)
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, c *DiffuseColor) {
		st.Color = c.RGBA
		m.backend.WriteBuffer(st.Buffer, 0, (&GPUMaterial{Diffuse: st.Color}).Marshal())
	})
	return m
}

func (m *Manager) create(e ecs.Entity) State {
	color := DefaultColor
	if c, ok := ecs.Get[DiffuseColor](m.world, e); ok {
		color = c.RGBA
	}
	uniform := GPUMaterial{Diffuse: color}
	buf, err := m.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "material_uniform",
		Size:  uint64(uniform.Size()),
		Usage: gpu.BufferUsageUniform | gpu.BufferUsageCopyDst,
	}, uniform.Marshal())
	if err != nil {
		panic(fmt.Errorf("material: failed to create uniform buffer: %w", err))
	}
	return State{Buffer: buf, Color: color}
}
