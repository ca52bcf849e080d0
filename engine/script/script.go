// package script exposes a scene to Lua. Scripts spawn and edit entities through a small
// set of global functions and may define a global frame(n) called once per frame in the
// OnLoad phase, before any GPU-side state is prepared.
//
// Entities cross into Lua as integer ids local to the Engine.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/light"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
	"github.com/Carmen-Shannon/oxy-gpu/engine/viewport"
)

// FrameFunc is the name of the optional per-frame Lua callback.
const FrameFunc = "frame"

// Engine wraps a single gopher-lua VM bound to one scene.
// Single-goroutine access only (the frame loop).
type Engine struct {
	vm       *lua.LState
	scene    *scene.Context
	entities map[int]ecs.Entity
	nextID   int
	errors   int
	log      *zap.Logger
}

// NewEngine creates a Lua VM, registers the scene API and hooks the frame callback into
// the OnLoad phase of the scene's world.
//
// Parameters:
//   - c: the scene scripts operate on
//   - log: the parent logger, or nil
//
// Returns:
//   - *Engine: the engine
func NewEngine(c *scene.Context, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		vm:       lua.NewState(),
		scene:    c,
		entities: make(map[int]ecs.Entity),
		nextID:   1,
		log:      log.Named("script"),
	}
	e.vm.SetGlobal("API_VERSION", lua.LNumber(1))
	for name, fn := range map[string]lua.LGFunction{
		"spawn_model":           e.spawnModel,
		"spawn_light":           e.spawnLight,
		"spawn_texture":         e.spawnTexture,
		"spawn_material":        e.spawnMaterial,
		"spawn_viewport":        e.spawnViewport,
		"set_light_color":       e.setLightColor,
		"set_model_position":    e.setModelPosition,
		"set_viewport_position": e.setViewportPosition,
		"set_texture":           e.setTexture,
		"destroy":               e.destroy,
	} {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
	c.World.System(ecs.PhaseOnLoad, "script.frame", func(w *ecs.World) {
		e.Frame(w.Frame())
	})
	return e
}

// Load runs the Lua file at path.
func (e *Engine) Load(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load script %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// LoadString runs a Lua chunk.
func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	return nil
}

// Frame calls the script's frame function with the frame number. A missing function is
// not an error; a failing one is logged and counted.
func (e *Engine) Frame(n uint64) {
	fn := e.vm.GetGlobal(FrameFunc)
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(n)); err != nil {
		e.errors++
		e.log.Error("lua frame error", zap.Uint64("frame", n), zap.Error(err))
	}
}

// Errors returns the number of failed frame callbacks.
func (e *Engine) Errors() int {
	return e.errors
}

// Entity returns the entity behind a script id.
func (e *Engine) Entity(id int) (ecs.Entity, bool) {
	ent, ok := e.entities[id]
	return ent, ok
}

// Close shuts the VM down. Entities spawned by scripts are left in the scene.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) register(ent ecs.Entity) lua.LNumber {
	id := e.nextID
	e.nextID++
	e.entities[id] = ent
	return lua.LNumber(id)
}

// entityArg reads argument n as a script id. An absent or nil argument yields the zero
// Entity, which selects presets.
func (e *Engine) entityArg(L *lua.LState, n int) ecs.Entity {
	if L.Get(n) == lua.LNil {
		return ecs.Entity{}
	}
	id := L.CheckInt(n)
	ent, ok := e.entities[id]
	if !ok || !e.scene.World.IsAlive(ent) {
		L.ArgError(n, fmt.Sprintf("unknown entity %d", id))
	}
	return ent
}

// fieldEntity reads t[key] as a script id.
func (e *Engine) fieldEntity(L *lua.LState, t *lua.LTable, key string) ecs.Entity {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return ecs.Entity{}
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		L.RaiseError("field %s: expected entity id, got %s", key, v.Type())
	}
	ent, ok := e.entities[int(n)]
	if !ok || !e.scene.World.IsAlive(ent) {
		L.RaiseError("field %s: unknown entity %d", key, int(n))
	}
	return ent
}

func fieldNumber(t *lua.LTable, key string, def float32) float32 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float32(n)
	}
	return def
}

func fieldVec3(t *lua.LTable, x, y, z string) [3]float32 {
	return [3]float32{fieldNumber(t, x, 0), fieldNumber(t, y, 0), fieldNumber(t, z, 0)}
}

func vec3Args(L *lua.LState, from int) [3]float32 {
	return [3]float32{
		float32(L.CheckNumber(from)),
		float32(L.CheckNumber(from + 1)),
		float32(L.CheckNumber(from + 2)),
	}
}

// spawn_model{x=, y=, z=, scale=, material=, texture=, mesh=, viewport=} -> id
func (e *Engine) spawnModel(L *lua.LState) int {
	t := L.OptTable(1, L.NewTable())
	s := fieldNumber(t, "scale", 1)
	spec := scene.ModelSpec{
		Transform: model.Transform{
			Position: fieldVec3(t, "x", "y", "z"),
			Rotation: fieldVec3(t, "rx", "ry", "rz"),
			Scale:    [3]float32{s, s, s},
		},
		Mesh:     e.fieldEntity(L, t, "mesh"),
		Material: e.fieldEntity(L, t, "material"),
		Texture:  e.fieldEntity(L, t, "texture"),
		Viewport: e.fieldEntity(L, t, "viewport"),
	}
	L.Push(e.register(e.scene.SpawnModel(spec)))
	return 1
}

// spawn_light{x=, y=, z=, r=, g=, b=, intensity=, distance=, viewport=} -> id
func (e *Engine) spawnLight(L *lua.LState) int {
	t := L.OptTable(1, L.NewTable())
	spec := scene.LightSpec{
		Position:  fieldVec3(t, "x", "y", "z"),
		Intensity: fieldNumber(t, "intensity", 0),
		Distance:  fieldNumber(t, "distance", 0),
		Viewport:  e.fieldEntity(L, t, "viewport"),
	}
	if t.RawGetString("r") != lua.LNil || t.RawGetString("g") != lua.LNil || t.RawGetString("b") != lua.LNil {
		spec.Color = fieldVec3(t, "r", "g", "b")
	}
	L.Push(e.register(e.scene.SpawnLight(spec)))
	return 1
}

// spawn_texture(path) -> id
func (e *Engine) spawnTexture(L *lua.LState) int {
	L.Push(e.register(e.scene.SpawnTexture(L.CheckString(1))))
	return 1
}

// spawn_material(r, g, b[, a]) -> id
func (e *Engine) spawnMaterial(L *lua.LState) int {
	rgb := vec3Args(L, 1)
	a := float32(L.OptNumber(4, 1))
	L.Push(e.register(e.scene.SpawnMaterial([4]float32{rgb[0], rgb[1], rgb[2], a})))
	return 1
}

// spawn_viewport(x, y, z[, yaw, pitch]) -> id
func (e *Engine) spawnViewport(L *lua.LState) int {
	pos := vec3Args(L, 1)
	rot := viewport.Rotation{
		Yaw:   float32(L.OptNumber(4, 0)),
		Pitch: float32(L.OptNumber(5, 0)),
	}
	L.Push(e.register(e.scene.SpawnViewport(pos, rot)))
	return 1
}

// set_light_color(id, r, g, b)
func (e *Engine) setLightColor(L *lua.LState) int {
	ent := e.entityArg(L, 1)
	if !ecs.Has[light.Tag](e.scene.World, ent) {
		L.ArgError(1, "not a light")
	}
	ecs.Set(e.scene.World, ent, light.Color{RGB: vec3Args(L, 2)})
	return 0
}

// set_model_position(id, x, y, z)
func (e *Engine) setModelPosition(L *lua.LState) int {
	ent := e.entityArg(L, 1)
	w := e.scene.World
	if !ecs.Has[model.Tag](w, ent) {
		L.ArgError(1, "not a model")
	}
	t := model.IdentityTransform
	if cur, ok := ecs.Get[model.Transform](w, ent); ok {
		t = *cur
	}
	t.Position = vec3Args(L, 2)
	ecs.Set(w, ent, t)
	return 0
}

// set_viewport_position(id|nil, x, y, z); nil moves the preset viewport.
func (e *Engine) setViewportPosition(L *lua.LState) int {
	ent := e.entityArg(L, 1)
	if ent.IsZero() {
		ent = e.scene.Presets.Viewport
	}
	if !ecs.Has[viewport.Tag](e.scene.World, ent) {
		L.ArgError(1, "not a viewport")
	}
	ecs.Set(e.scene.World, ent, viewport.Position{XYZ: vec3Args(L, 2)})
	return 0
}

// set_texture(model, texture|nil); nil selects the preset texture.
func (e *Engine) setTexture(L *lua.LState) int {
	ent := e.entityArg(L, 1)
	if !ecs.Has[model.Tag](e.scene.World, ent) {
		L.ArgError(1, "not a model")
	}
	ecs.Set(e.scene.World, ent, model.TextureRef{Entity: e.entityArg(L, 2)})
	return 0
}

// destroy(id) -> bool
func (e *Engine) destroy(L *lua.LState) int {
	id := L.CheckInt(1)
	ent, ok := e.entities[id]
	if ok {
		delete(e.entities, id)
		ok = e.scene.Destroy(ent)
	}
	L.Push(lua.LBool(ok))
	return 1
}
