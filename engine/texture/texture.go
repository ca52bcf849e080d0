// package texture manages the sampled diffuse textures of texture entities.
package texture

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"go.uber.org/zap"
)

// DefaultPath is the image used when an entity has no Path.
const DefaultPath = "default.png"

// Tag marks an entity as owning a texture.
type Tag struct{}

// Path names the image file of an entity.
type Path struct {
	Name string
}

// State is the GPU-side record of one texture.
type State struct {
	Path    string
	Texture gpu.Texture
	Width   uint32
	Height  uint32
}

// Manager owns every texture record of a world. Replacing a texture changes its handle,
// so change observers are notified after every successful reload.
type Manager struct {
	*resource.Manager[State]

	world       *ecs.World
	backend     gpu.Backend
	loader      loader.ImageLoader
	defaultPath string
	log         *zap.Logger
}

// NewManager creates the texture manager and registers its hooks on w.
//
// Parameters:
//   - w: the world whose texture entities are managed
//   - backend: the graphics backend
//   - l: the image loader
//   - options: builder options
//
// Returns:
//   - *Manager: the new manager
func NewManager(w *ecs.World, backend gpu.Backend, l loader.ImageLoader, options ...ManagerBuilderOption) *Manager {
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
	m.Manager = resource.NewManager("texture",
		resource.WithLogger[State](m.log),
		resource.WithRelease(m.release),
	)
	m.log = m.log.Named("texture")

	resource.Track[Tag](w, m.Manager, m.create)
	resource.OnChange(w, m.Manager, func(e ecs.Entity, k slot.Key, st *State, p *Path) {
		if m.reload(st, p.Name) {
			m.NotifyChanged(k)
		}
	})
	return m
}

func (m *Manager) create(e ecs.Entity) State {
	path := m.defaultPath
	if p, ok := ecs.Get[Path](m.world, e); ok && p.Name != "" {
		path = p.Name
	}
	var st State
	if m.reload(&st, path) {
		return st
	}
	if path != m.defaultPath && m.reload(&st, m.defaultPath) {
		return st
	}
	// 1x1 white keeps the entity bindable when no image can be read.
	m.upload(&st, "fallback", loader.Image{Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}})
	return st
}

// reload loads path into st, releasing the old texture first. On failure it logs and
// leaves st untouched.
func (m *Manager) reload(st *State, path string) bool {
	img, err := m.loader.LoadImage(path)
	if err != nil {
		m.log.Warn("texture load failed, keeping previous image", zap.String("path", path), zap.Error(err))
		return false
	}
	m.release(st)
	m.upload(st, path, img)
	return true
}

func (m *Manager) upload(st *State, path string, img loader.Image) {
	tex, err := m.backend.CreateTexture(gpu.TextureDescriptor{
		Label:  path,
		Width:  img.Width,
		Height: img.Height,
		Format: gpu.TextureFormatRGBA8,
	}, img.Pixels)
	if err != nil {
		panic(fmt.Errorf("texture %s: failed to create texture: %w", path, err))
	}
	*st = State{Path: path, Texture: tex, Width: img.Width, Height: img.Height}
}

func (m *Manager) release(st *State) {
	if st.Texture.Valid() {
		m.backend.ReleaseTexture(st.Texture)
	}
	st.Texture = gpu.Texture{}
}

// ManagerBuilderOption is a functional option for configuring a texture Manager.
type ManagerBuilderOption func(*Manager)

// WithDefaultPath is an option builder that sets the image loaded for entities without a Path.
//
// Parameters:
//   - path: the default image file
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
