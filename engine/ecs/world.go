package ecs

import "reflect"

// Phase names a point of the frame at which systems run. Phases run in declaration order.
type Phase int

const (
	// PhaseOnLoad runs game logic and input; most component writes happen here.
	PhaseOnLoad Phase = iota
	// PhasePreStore prepares GPU-side state from the CPU-side components.
	PhasePreStore
	// PhaseOnStore records and submits the frame's command buffers.
	PhaseOnStore
	// PhasePostFrame runs after submission; deferred destruction happens here.
	PhasePostFrame

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseOnLoad:
		return "OnLoad"
	case PhasePreStore:
		return "PreStore"
	case PhaseOnStore:
		return "OnStore"
	case PhasePostFrame:
		return "PostFrame"
	default:
		return "Unknown"
	}
}

type system struct {
	name string
	fn   func(w *World)
}

// World owns entities, their components and the per-phase system lists.
// A World is driven from a single goroutine.
type World struct {
	entities   entityRegistry
	stores     map[reflect.Type]componentStore
	storeOrder []reflect.Type
	systems    [phaseCount][]system
	frame      uint64
}

// NewWorld creates an empty World.
func NewWorld() *World {
	return &World{
		stores: make(map[reflect.Type]componentStore),
	}
}

// NewEntity creates an entity with no components.
func (w *World) NewEntity() Entity {
	return w.entities.create()
}

// IsAlive reports whether e has been created and not destroyed.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

// Alive returns the number of live entities.
func (w *World) Alive() int {
	return w.entities.alive
}

// Destroy fires the on-remove hooks of every component e carries, then drops the
// components and recycles the entity. All hooks observe the entity fully intact.
//
// Parameters:
//   - e: the entity to destroy
//
// Returns:
//   - bool: false if e was not alive
func (w *World) Destroy(e Entity) bool {
	if !w.IsAlive(e) {
		return false
	}
	for _, t := range w.storeOrder {
		if s := w.stores[t]; s.has(e) {
			s.fireRemove(e)
		}
	}
	for _, t := range w.storeOrder {
		w.stores[t].drop(e)
	}
	return w.entities.destroy(e)
}

// System registers fn to run in phase p. Systems of one phase run in registration order.
//
// Parameters:
//   - p: the phase
//   - name: a label used in diagnostics
//   - fn: the system body
func (w *World) System(p Phase, name string, fn func(w *World)) {
	w.systems[p] = append(w.systems[p], system{name: name, fn: fn})
}

// Systems returns the names of the systems registered for p, in run order.
func (w *World) Systems(p Phase) []string {
	names := make([]string, len(w.systems[p]))
	for i, s := range w.systems[p] {
		names[i] = s.name
	}
	return names
}

// RunPhase runs the systems of a single phase.
func (w *World) RunPhase(p Phase) {
	for _, s := range w.systems[p] {
		s.fn(w)
	}
}

// Progress runs one frame: every phase in order, then advances the frame counter.
func (w *World) Progress() {
	for p := PhaseOnLoad; p < phaseCount; p++ {
		w.RunPhase(p)
	}
	w.frame++
}

// Frame returns the number of completed Progress calls.
func (w *World) Frame() uint64 {
	return w.frame
}
