// package scene wires every resource manager of the engine to one world and one backend,
// and registers the per-frame systems in the order the lifecycle requires:
//
//	PreStore:  shadow.create, model.rebuild, viewport.upload
//	OnStore:   user render systems (record and submit)
//	PostFrame: flush
//
// Records retired during a frame are released only in PostFrame, after the frame's
// command buffers were submitted.
package scene

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gpu/engine/light"
	"github.com/Carmen-Shannon/oxy-gpu/engine/loader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/material"
	"github.com/Carmen-Shannon/oxy-gpu/engine/mesh"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/resource"
	"github.com/Carmen-Shannon/oxy-gpu/engine/shadow"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
	"go.uber.org/zap"
)

// Presets are the entities carrying the fallback record of each manager.
type Presets struct {
	Mesh     ecs.Entity
	Texture  ecs.Entity
	Material ecs.Entity
	Viewport ecs.Entity
}

// FrameStats counts the work done by the lifecycle systems in the last frame.
type FrameStats struct {
	Frame            uint64
	PairsCreated     int
	HeapsRebuilt     int
	ViewportsWritten int
	Erased           int
}

// Context owns the world, the backend and every manager bound to them. It replaces any
// process-wide registry: everything reachable from a frame is reachable from its Context.
type Context struct {
	World   *ecs.World
	Backend gpu.Backend
	Loader  loader.Loader

	Meshes    *mesh.Manager
	Textures  *texture.Manager
	Materials *material.Manager
	Viewports *viewport.Manager
	Lights    *light.Manager
	Models    *model.Manager
	Shadows   *shadow.Manager

	// Sampler is shared by every model heap.
	Sampler gpu.Sampler
	Presets Presets

	presets    *config.Presets
	view       config.ViewportConfig
	extent     viewport.Extent
	resolution uint32
	stats      FrameStats
	closed     bool
	log        *zap.Logger
}

// NewContext creates a world, every manager and the preset entities, and registers the
// lifecycle systems.
//
// Parameters:
//   - backend: the graphics backend every record allocates from
//   - l: the mesh and image loader
//   - options: builder options
//
// Returns:
//   - *Context: the ready context
func NewContext(backend gpu.Backend, l loader.Loader, options ...ContextBuilderOption) *Context {
	c := &Context{
		World:      ecs.NewWorld(),
		Backend:    backend,
		Loader:     l,
		presets:    config.DefaultPresets(),
		view:       config.Defaults().Viewport,
		extent:     viewport.Extent{Width: 1, Height: 1},
		resolution: shadow.DefaultResolution,
		log:        zap.NewNop(),
	}
	for _, option := range options {
		option(c)
	}
	c.log = c.log.Named("scene")

	sampler, err := backend.CreateSampler(gpu.SamplerDescriptor{Label: "model_sampler", Linear: true, Repeat: true})
	if err != nil {
		panic(fmt.Errorf("scene: failed to create sampler: %w", err))
	}
	c.Sampler = sampler

	root := c.log.Named("resource")
	w := c.World
	c.Meshes = mesh.NewManager(w, backend, l, mesh.WithDefaultPath(c.presets.Mesh), mesh.WithLogger(root))
	c.Textures = texture.NewManager(w, backend, l, texture.WithDefaultPath(c.presets.Texture), texture.WithLogger(root))
	c.Materials = material.NewManager(w, backend, root)
	c.Viewports = viewport.NewManager(w, backend,
		viewport.WithFov(c.view.FovDegrees*math.Pi/180),
		viewport.WithNear(c.view.Near),
		viewport.WithFar(c.view.Far),
		viewport.WithLogger(root),
	)
	c.Lights = light.NewManager(w, backend, c.Viewports, root)
	c.Models = model.NewManager(w, backend, model.Dependencies{
		Meshes:    c.Meshes,
		Materials: c.Materials,
		Textures:  c.Textures,
		Viewports: c.Viewports,
		Sampler:   sampler,
	}, root)
	c.Shadows = shadow.NewManager(backend, c.Lights, c.Models,
		shadow.WithResolution(c.resolution),
		shadow.WithLogger(root),
	)

	c.spawnPresets()
	c.registerSystems()
	c.log.Info("scene ready",
		zap.String("mesh", c.presets.Mesh),
		zap.String("texture", c.presets.Texture),
	)
	return c
}

func (c *Context) spawnPresets() {
	w := c.World

	c.Presets.Mesh = w.NewEntity()
	ecs.Set(w, c.Presets.Mesh, mesh.Path{Name: c.presets.Mesh})
	ecs.Add[mesh.Tag](w, c.Presets.Mesh)
	c.Meshes.SetPreset(mustKey[mesh.State](w, c.Presets.Mesh))

	c.Presets.Texture = w.NewEntity()
	ecs.Set(w, c.Presets.Texture, texture.Path{Name: c.presets.Texture})
	ecs.Add[texture.Tag](w, c.Presets.Texture)
	c.Textures.SetPreset(mustKey[texture.State](w, c.Presets.Texture))

	c.Presets.Material = w.NewEntity()
	ecs.Set(w, c.Presets.Material, material.DiffuseColor{RGBA: c.presets.Material.Diffuse})
	ecs.Add[material.Tag](w, c.Presets.Material)
	c.Materials.SetPreset(mustKey[material.State](w, c.Presets.Material))

	c.Presets.Viewport = w.NewEntity()
	ecs.Set(w, c.Presets.Viewport, viewport.Position{XYZ: c.presets.Viewport.Position})
	ecs.Set(w, c.Presets.Viewport, viewport.Rotation{Yaw: c.presets.Viewport.Yaw, Pitch: c.presets.Viewport.Pitch})
	ecs.Set(w, c.Presets.Viewport, c.extent)
	ecs.Add[viewport.Tag](w, c.Presets.Viewport)
	c.Viewports.SetPreset(mustKey[viewport.State](w, c.Presets.Viewport))
}

func mustKey[T any](w *ecs.World, e ecs.Entity) slot.Key {
	k, ok := resource.KeyOf[T](w, e)
	if !ok {
		panic(fmt.Errorf("scene: preset entity %v was not initialized", e))
	}
	return k
}

func (c *Context) registerSystems() {
	w := c.World
	w.System(ecs.PhasePreStore, "shadow.create", func(*ecs.World) {
		c.stats.PairsCreated = c.Shadows.Create()
	})
	w.System(ecs.PhasePreStore, "model.rebuild", func(*ecs.World) {
		c.stats.HeapsRebuilt = c.Models.Rebuild()
	})
	w.System(ecs.PhasePreStore, "viewport.upload", func(*ecs.World) {
		c.stats.ViewportsWritten = c.Viewports.Upload(c.Lights)
	})
	w.System(ecs.PhasePostFrame, "flush", func(w *ecs.World) {
		c.stats.Erased = c.flush()
		c.stats.Frame = w.Frame()
	})
}

// flush drains every deferred removal queue. Holders are flushed before the records they
// bind: pairs before lights and models, models before their dependencies.
func (c *Context) flush() int {
	n := c.Shadows.Pairs.Flush()
	n += c.Models.Flush()
	n += c.Lights.Flush()
	n += c.Shadows.Cubes.Flush()
	n += c.Materials.Flush()
	n += c.Textures.Flush()
	n += c.Meshes.Flush()
	n += c.Viewports.Flush()
	return n
}

// OnStore registers a render system. It runs after every buffer and heap of the frame is
// up to date and before any removal is flushed.
//
// Parameters:
//   - name: the system name
//   - fn: the system body
func (c *Context) OnStore(name string, fn func(c *Context)) {
	c.World.System(ecs.PhaseOnStore, name, func(*ecs.World) { fn(c) })
}

// Progress runs one frame.
//
// Returns:
//   - FrameStats: the work done by the lifecycle systems
func (c *Context) Progress() FrameStats {
	if c.closed {
		panic("scene: Progress on a closed context")
	}
	c.stats = FrameStats{}
	c.World.Progress()
	return c.stats
}

// Stats returns the statistics of the last frame.
func (c *Context) Stats() FrameStats {
	return c.stats
}

// Close retires every record, flushes every queue and releases the shared sampler. The
// context cannot be used afterwards.
func (c *Context) Close() {
	if c.closed {
		return
	}
	retireAll(c.Shadows.Pairs)
	retireAll(c.Models.Manager)
	retireAll(c.Lights.Manager)
	retireAll(c.Shadows.Cubes)
	retireAll(c.Materials.Manager)
	retireAll(c.Textures.Manager)
	retireAll(c.Meshes.Manager)
	retireAll(c.Viewports.Manager)
	erased := c.flush()
	c.Backend.ReleaseSampler(c.Sampler)
	c.closed = true
	c.log.Info("scene closed", zap.Int("erased", erased))
}

func retireAll[T any](m *resource.Manager[T]) {
	for _, k := range m.Keys() {
		m.EnqueueRemoval(k)
	}
}
