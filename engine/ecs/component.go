package ecs

import (
	"reflect"
	"slices"
)

// Hook is called with the affected entity and a pointer to its component value.
// The pointer is valid for the duration of the call only.
type Hook[T any] func(e Entity, c *T)

// componentStore is the type-erased view of a storage the World needs for Destroy.
type componentStore interface {
	has(e Entity) bool
	fireRemove(e Entity)
	drop(e Entity)
}

// storage holds every component value of one type plus its hooks.
type storage[T any] struct {
	data     map[Entity]*T
	onAdd    []Hook[T]
	onSet    []Hook[T]
	onRemove []Hook[T]
}

func (s *storage[T]) has(e Entity) bool {
	_, ok := s.data[e]
	return ok
}

func (s *storage[T]) fireRemove(e Entity) {
	c, ok := s.data[e]
	if !ok {
		return
	}
	for _, h := range s.onRemove {
		h(e, c)
	}
}

func (s *storage[T]) drop(e Entity) {
	delete(s.data, e)
}

// storeOf returns the storage for T, creating it on first use.
func storeOf[T any](w *World) *storage[T] {
	t := reflect.TypeFor[T]()
	if s, ok := w.stores[t]; ok {
		return s.(*storage[T])
	}
	s := &storage[T]{data: make(map[Entity]*T)}
	w.stores[t] = s
	w.storeOrder = append(w.storeOrder, t)
	return s
}

// OnAdd registers a hook fired when T is added to an entity that did not carry it.
func OnAdd[T any](w *World, h func(e Entity, c *T)) {
	s := storeOf[T](w)
	s.onAdd = append(s.onAdd, h)
}

// OnSet registers a hook fired on every Set of T, including the first, and on Modified.
func OnSet[T any](w *World, h func(e Entity, c *T)) {
	s := storeOf[T](w)
	s.onSet = append(s.onSet, h)
}

// OnRemove registers a hook fired before T is removed from an entity, including when the
// entity is destroyed. The component is still readable while the hook runs.
func OnRemove[T any](w *World, h func(e Entity, c *T)) {
	s := storeOf[T](w)
	s.onRemove = append(s.onRemove, h)
}

// Add attaches a zero T to e if it is not already present and returns the component.
// On-add hooks fire only when the component is new. Returns nil if e is not alive.
//
// Parameters:
//   - w: the world
//   - e: the entity
//
// Returns:
//   - *T: the component value
func Add[T any](w *World, e Entity) *T {
	if !w.IsAlive(e) {
		return nil
	}
	s := storeOf[T](w)
	if c, ok := s.data[e]; ok {
		return c
	}
	c := new(T)
	s.data[e] = c
	for _, h := range s.onAdd {
		h(e, c)
	}
	return c
}

// Set writes v as e's T component, adding it first if absent, then fires on-set hooks.
// Setting a component on a dead entity is ignored.
//
// Parameters:
//   - w: the world
//   - e: the entity
//   - v: the component value
func Set[T any](w *World, e Entity, v T) {
	c := Add[T](w, e)
	if c == nil {
		return
	}
	*c = v
	Modified[T](w, e)
}

// Modified fires the on-set hooks of T for e after an in-place edit through Get.
func Modified[T any](w *World, e Entity) {
	s := storeOf[T](w)
	c, ok := s.data[e]
	if !ok {
		return
	}
	for _, h := range s.onSet {
		h(e, c)
	}
}

// Get returns e's T component.
//
// Returns:
//   - *T: the component, or nil
//   - bool: false if e does not carry T
func Get[T any](w *World, e Entity) (*T, bool) {
	c, ok := storeOf[T](w).data[e]
	return c, ok
}

// Has reports whether e carries T.
func Has[T any](w *World, e Entity) bool {
	_, ok := storeOf[T](w).data[e]
	return ok
}

// Remove detaches T from e, firing on-remove hooks first. Removing an absent component
// is a no-op.
func Remove[T any](w *World, e Entity) {
	s := storeOf[T](w)
	if !s.has(e) {
		return
	}
	s.fireRemove(e)
	s.drop(e)
}

// Each calls fn for every entity carrying T in ascending entity-index order.
// fn may add or remove components; entities whose T is removed mid-iteration are skipped.
func Each[T any](w *World, fn func(e Entity, c *T)) {
	s := storeOf[T](w)
	ents := make([]Entity, 0, len(s.data))
	for e := range s.data {
		ents = append(ents, e)
	}
	slices.SortFunc(ents, func(a, b Entity) int {
		return int(a.index) - int(b.index)
	})
	for _, e := range ents {
		if c, ok := s.data[e]; ok {
			fn(e, c)
		}
	}
}

// Count returns the number of entities carrying T.
func Count[T any](w *World) int {
	return len(storeOf[T](w).data)
}
