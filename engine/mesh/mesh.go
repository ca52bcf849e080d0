// package mesh manages the vertex and index buffers of mesh entities.
//
// An entity becomes a mesh when Tag is added; its geometry is read from the file named by
// its Path component, or from the manager's default path when none is set.
package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"go.uber.org/zap"
)

// DefaultPath is the mesh file used when an entity has no Path.
const DefaultPath = "cube.obj"

// Tag marks an entity as owning a mesh.
type Tag struct{}

// Path names the mesh file of an entity.
type Path struct {
	Name string
}

// State is the GPU-side record of one mesh.
type State struct {
	Path        string
	Vertices    gpu.Buffer
	Indices     gpu.Buffer
	VertexCount uint32
	IndexCount  uint32
}

// Manager owns every mesh record of a world.
type Manager struct {
	*resource.Manager[State]

	world       *ecs.World
	backend     gpu.Backend
	loader      loader.MeshLoader
	defaultPath string
	log         *zap.Logger
}

// NewManager creates the mesh manager and registers its hooks on w.
//
// Parameters:
//   - w: the world whose mesh entities are managed
//   - backend: the graphics backend
//   - l: the mesh loader
//   - options: builder options
//
// Returns:
//   - *Manager: the new manager
func NewManager(w *ecs.World, backend gpu.Backend, l loader.MeshLoader, options ...ManagerBuilderOption) *Manager {
	m := &Manager{
		world:       w,
		backend:     backend,
		loader:      l,
		defaultPath: DefaultPath,
		log:         zap.NewNop(),
	}
	for _, option := range options {
		option(m)
	}
	m.Manager = resource.NewManager("mesh",
		resource.WithLogger[State](m.log),
		resource.WithRelease(m.release),
	)
	m.log = m.log.Named("mesh")

	resource.Track[Tag](w, m.Manager, m.create)
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, p *Path) {
		m.reload(st, p.Name)
	})
	return m
}

func (m *Manager) create(e ecs.Entity) State {
	path := m.defaultPath
	if p, ok := ecs.Get[Path](m.world, e); ok && p.Name != "" {
		path = p.Name
	}
	var st State
	if !m.reload(&st, path) && path != m.defaultPath {
		m.reload(&st, m.defaultPath)
	}
	return st
}

// reload loads path into st. On failure it logs and leaves st untouched.
func (m *Manager) reload(st *State, path string) bool {
	vertices, indices, err := m.loader.LoadMesh(path)
	if err != nil {
		m.log.Warn("mesh load failed, keeping previous geometry", zap.String("path", path), zap.Error(err))
		return false
	}

	vb, err := m.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: path + "_vertices",
		Size:  uint64(len(vertices) * loader.VertexSize),
		Usage: gpu.BufferUsageVertex | gpu.BufferUsageCopyDst,
	}, loader.MarshalVertices(vertices))
	if err != nil {
		panic(fmt.Errorf("mesh %s: failed to create vertex buffer: %w", path, err))
	}
	ib, err := m.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: path + "_indices",
		Size:  uint64(len(indices) * 4),
		Usage: gpu.BufferUsageIndex | gpu.BufferUsageCopyDst,
	}, loader.MarshalIndices(indices))
	if err != nil {
		panic(fmt.Errorf("mesh %s: failed to create index buffer: %w", path, err))
	}

	m.release(st)
	*st = State{
		Path:        path,
		Vertices:    vb,
		Indices:     ib,
		VertexCount: uint32(len(vertices)),
		IndexCount:  uint32(len(indices)),
	}
	return true
}

func (m *Manager) release(st *State) {
	if st.Vertices.Valid() {
		m.backend.ReleaseBuffer(st.Vertices)
	}
	if st.Indices.Valid() {
		m.backend.ReleaseBuffer(st.Indices)
	}
	st.Vertices, st.Indices = gpu.Buffer{}, gpu.Buffer{}
}

// ManagerBuilderOption is a functional option for configuring a mesh Manager.
type ManagerBuilderOption func(*Manager)

// WithDefaultPath is an option builder that sets the mesh loaded for entities without a Path.
//
// Parameters:
//   - path: the default mesh file
//
// Returns:
//   - ManagerBuilderOption: a function that applies the default path option to a Manager
func WithDefaultPath(path string) ManagerBuilderOption {
	return func(m *Manager) {
		if path != "" {
			m.defaultPath = path
		}
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
