// package ecs is the minimal entity-component layer the resource managers are driven by:
// generation-checked entities, typed component storage, add/set/remove hooks and named
// frame phases. There is no global registry; every operation takes the World explicitly.
package ecs

import "fmt"

// Entity identifies an entity and encodes a generation for stale-handle detection.
// The zero Entity is never issued.
type Entity struct {
	index      uint32
	generation uint32
}

// Index returns the backing index of the entity.
func (e Entity) Index() uint32 {
	return e.index
}

// Generation returns the generation counter associated with the entity.
func (e Entity) Generation() uint32 {
	return e.generation
}

// IsZero reports whether the identifier is the zero value.
func (e Entity) IsZero() bool {
	return e.index == 0 && e.generation == 0
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity(%d:%d)", e.index, e.generation)
}

// entityRegistry coordinates entity allocation and recycling.
type entityRegistry struct {
	generations []uint32
	free        []uint32
	alive       int
}

func (r *entityRegistry) create() Entity {
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.generations))
		r.generations = append(r.generations, 0)
	}
	// Generations start at 1 so the zero Entity is never live.
	r.generations[index]++
	r.alive++
	return Entity{index: index, generation: r.generations[index]}
}

func (r *entityRegistry) destroy(e Entity) bool {
	if !r.isAlive(e) {
		return false
	}
	r.alive--
	r.generations[e.index]++
	r.free = append(r.free, e.index)
	return true
}

func (r *entityRegistry) isAlive(e Entity) bool {
	if e.IsZero() || int(e.index) >= len(r.generations) {
		return false
	}
	return r.generations[e.index] == e.generation
}
