package resource

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/ecs"
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
)

// Handle is the component linking an entity to its record in a Manager[T].
// Its presence is the entity's "initialized" flag for T.
type Handle[T any] struct {
	Key slot.Key
}

// KeyOf returns the key of e's T record.
//
// Returns:
//   - slot.Key: the key, or slot.NullKey
//   - bool: false if e is not initialized for T
func KeyOf[T any](w *ecs.World, e ecs.Entity) (slot.Key, bool) {
	h, ok := ecs.Get[Handle[T]](w, e)
	if !ok {
		return slot.NullKey, false
	}
	return h.Key, true
}

// Track creates a T record when Marker is added to an entity and queues it for removal
// when Marker is removed or the entity is destroyed.
//
// Creation is idempotent: an entity already carrying Handle[T] is left untouched.
// Insert observers run after the handle is attached, so KeyOf already resolves in them.
// create runs while the entity's other components are readable; it should panic if the
// backend refuses an allocation.
//
// Parameters:
//   - w: the world
//   - m: the manager owning the records
//   - create: builds the record for the entity
func Track[Marker, T any](w *ecs.World, m *Manager[T], create func(e ecs.Entity) T) {
	ecs.OnAdd(w, func(e ecs.Entity, _ *Marker) {
		if ecs.Has[Handle[T]](w, e) {
			return
		}
		k := m.push(create(e))
		ecs.Set(w, e, Handle[T]{Key: k})
		notify(m.onInsert, k)
	})
	ecs.OnRemove(w, func(e ecs.Entity, _ *Marker) {
		h, ok := ecs.Get[Handle[T]](w, e)
		if !ok {
			return
		}
		m.EnqueueRemoval(h.Key)
		ecs.Remove[Handle[T]](w, e)
	})
}

// OnChange runs update whenever component C is set on an entity initialized for T.
// Entities that are not initialized, or whose record is already retiring, are ignored.
//
// Parameters:
//   - w: the world
//   - m: the manager owning the records
//   - update: applies the new component value to the record
func OnChange[C, T any](w *ecs.World, m *Manager[T], update func(e ecs.Entity, k slot.Key, rec *T, c *C)) {
	ecs.OnSet(w, func(e ecs.Entity, c *C) {
		h, ok := ecs.Get[Handle[T]](w, e)
		if !ok || !m.Usable(h.Key) {
			return
		}
		update(e, h.Key, m.At(h.Key), c)
	})
}

// Resolve returns the key of e's T record when e is initialized for T and the record is not
// retiring; otherwise it returns the manager's preset key.
//
// Parameters:
//   - w: the world
//   - m: the manager owning the records
//   - e: the referenced entity; the zero Entity selects the preset
//
// Returns:
//   - slot.Key: the resolved key, possibly slot.NullKey when no preset is set
func Resolve[T any](w *ecs.World, m *Manager[T], e ecs.Entity) slot.Key {
	if !e.IsZero() {
		if k, ok := KeyOf[T](w, e); ok && m.Usable(k) {
			return k
		}
	}
	return m.Preset()
}
