package scene

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/light"
	"github.com/Carmen-Shannon/oxy-gpu/engine/material"
	"github.com/Carmen-Shannon/oxy-gpu/engine/mesh"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

// ModelSpec describes a model entity. Zero entities select the presets.
type ModelSpec struct {
	Transform model.Transform
	Mesh      ecs.Entity
	Material  ecs.Entity
	Texture   ecs.Entity
	Viewport  ecs.Entity
}

// LightSpec describes a light entity. Zero fields keep the light defaults.
type LightSpec struct {
	Position  [3]float32
	Color     [3]float32
	Intensity float32
	Distance  float32
	Viewport  ecs.Entity
}

// SpawnModel creates a model entity. A zero Transform scale is replaced by unit scale.
func (c *Context) SpawnModel(spec ModelSpec) ecs.Entity {
	w := c.World
	e := w.NewEntity()
	t := spec.Transform
	if t.Scale == ([3]float32{}) {
		t.Scale = model.IdentityTransform.Scale
	}
	ecs.Set(w, e, t)
	setRef(w, e, spec.Mesh, func(r ecs.Entity) model.MeshRef { return model.MeshRef{Entity: r} })
	setRef(w, e, spec.Material, func(r ecs.Entity) model.MaterialRef { return model.MaterialRef{Entity: r} })
	setRef(w, e, spec.Texture, func(r ecs.Entity) model.TextureRef { return model.TextureRef{Entity: r} })
	setRef(w, e, spec.Viewport, func(r ecs.Entity) model.ViewportRef { return model.ViewportRef{Entity: r} })
	ecs.Add[model.Tag](w, e)
	return e
}

func setRef[R any](w *ecs.World, e, ref ecs.Entity, mk func(ecs.Entity) R) {
	if !ref.IsZero() {
		ecs.Set(w, e, mk(ref))
	}
}

// SpawnLight creates a point-light entity.
func (c *Context) SpawnLight(spec LightSpec) ecs.Entity {
	w := c.World
	e := w.NewEntity()
	ecs.Set(w, e, light.Position{XYZ: spec.Position})
	if spec.Color != ([3]float32{}) {
		ecs.Set(w, e, light.Color{RGB: spec.Color})
	}
	if spec.Intensity != 0 {
		ecs.Set(w, e, light.Intensity{Value: spec.Intensity})
	}
	if spec.Distance != 0 {
		ecs.Set(w, e, light.Distance{Value: spec.Distance})
	}
	if !spec.Viewport.IsZero() {
		ecs.Set(w, e, light.ViewportRef{Entity: spec.Viewport})
	}
	ecs.Add[light.Tag](w, e)
	return e
}

// SpawnMesh creates a mesh entity loading path.
func (c *Context) SpawnMesh(path string) ecs.Entity {
	e := c.World.NewEntity()
	ecs.Set(c.World, e, mesh.Path{Name: path})
	ecs.Add[mesh.Tag](c.World, e)
	return e
}

// SpawnTexture creates a texture entity loading path.
func (c *Context) SpawnTexture(path string) ecs.Entity {
	e := c.World.NewEntity()
	ecs.Set(c.World, e, texture.Path{Name: path})
	ecs.Add[texture.Tag](c.World, e)
	return e
}

// SpawnMaterial creates a material entity with the given diffuse colour.
func (c *Context) SpawnMaterial(rgba [4]float32) ecs.Entity {
	e := c.World.NewEntity()
	ecs.Set(c.World, e, material.DiffuseColor{RGBA: rgba})
	ecs.Add[material.Tag](c.World, e)
	return e
}

// SpawnViewport creates a viewport entity with the extent of the preset viewport.
func (c *Context) SpawnViewport(position [3]float32, rotation viewport.Rotation) ecs.Entity {
	w := c.World
	e := w.NewEntity()
	ecs.Set(w, e, viewport.Position{XYZ: position})
	ecs.Set(w, e, rotation)
	ecs.Set(w, e, c.extent)
	ecs.Add[viewport.Tag](w, e)
	return e
}

// Destroy destroys e. Its records stay alive, and bound, until the end of the frame.
//
// Returns:
//   - bool: false if e was not alive
func (c *Context) Destroy(e ecs.Entity) bool {
	return c.World.Destroy(e)
}
