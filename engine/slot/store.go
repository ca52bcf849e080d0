package slot

import (
	"fmt"
	"math"
)

// entry is the sparse bookkeeping for one slot index.
type entry struct {
	dense      uint32
	generation uint32
	live       bool
}

// Store is a structure-of-arrays container addressed by Key.
//
// Values are kept densely packed in insertion order until an erase swaps the last value
// into the hole, so iteration touches only live values. Keys are decoupled from the dense
// position: PushBack may relocate the backing arrays and Erase may move another value, but
// neither changes any issued Key.
//
// Pointers returned by At and Each are only valid until the next PushBack or Erase.
// A Store is not safe for concurrent use.
type Store[T any] struct {
	values []T
	keys   []Key
	slots  []entry
	free   []uint32
}

// NewStore creates an empty Store with room for capacity values before reallocating.
//
// Parameters:
//   - capacity: the initial capacity hint
//
// Returns:
//   - *Store[T]: the new store
func NewStore[T any](capacity int) *Store[T] {
	return &Store[T]{
		values: make([]T, 0, capacity),
		keys:   make([]Key, 0, capacity),
		slots:  make([]entry, 0, capacity),
	}
}

// PushBack stores v and returns the Key that addresses it.
// Erased slot indices are recycled; a recycled slot always carries a newer generation than
// any key previously issued for it.
//
// Parameters:
//   - v: the value to store
//
// Returns:
//   - Key: the key addressing v
func (s *Store[T]) PushBack(v T) Key {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		if len(s.slots) >= math.MaxUint32 {
			panic("slot: store capacity exhausted")
		}
		index = uint32(len(s.slots))
		s.slots = append(s.slots, entry{})
	}

	e := &s.slots[index]
	e.dense = uint32(len(s.values))
	e.live = true

	k := Key{Index: index, Generation: e.generation}
	s.values = append(s.values, v)
	s.keys = append(s.keys, k)
	return k
}

// Erase removes the value addressed by k. Only k is invalidated; every other key keeps
// resolving to its own value.
//
// Parameters:
//   - k: the key to erase
//
// Returns:
//   - bool: false if k was not live
func (s *Store[T]) Erase(k Key) bool {
	d, ok := s.Find(k)
	if !ok {
		return false
	}

	last := len(s.values) - 1
	if d != last {
		s.values[d] = s.values[last]
		s.keys[d] = s.keys[last]
		s.slots[s.keys[d].Index].dense = uint32(d)
	}
	var zero T
	s.values[last] = zero
	s.values = s.values[:last]
	s.keys = s.keys[:last]

	e := &s.slots[k.Index]
	e.live = false
	e.generation++
	// A slot whose generation reaches the sentinel is retired so NullKey is never issued
	// and the counter never wraps back onto an old key.
	if e.generation != math.MaxUint32 {
		s.free = append(s.free, k.Index)
	}
	return true
}

// Find resolves k to its dense index.
//
// Parameters:
//   - k: the key to resolve
//
// Returns:
//   - int: the dense index of the value, or -1
//   - bool: false if k was erased or never issued by this store
func (s *Store[T]) Find(k Key) (int, bool) {
	if int(k.Index) >= len(s.slots) {
		return -1, false
	}
	e := s.slots[k.Index]
	if !e.live || e.generation != k.Generation {
		return -1, false
	}
	return int(e.dense), true
}

// At returns a pointer to the value addressed by k.
// k must be live; calling At with a stale key is a caller error. Builds with the
// oxydebug tag panic on it, other builds return whatever occupies the slot.
//
// Parameters:
//   - k: a live key
//
// Returns:
//   - *T: pointer to the stored value
func (s *Store[T]) At(k Key) *T {
	if debugAssertions {
		if _, ok := s.Find(k); !ok {
			panic(fmt.Sprintf("slot: At called with stale key %v", k))
		}
	}
	return &s.values[s.slots[k.Index].dense]
}

// Len returns the number of live values.
func (s *Store[T]) Len() int {
	return len(s.values)
}

// KeyAt returns the key of the value at dense index i.
func (s *Store[T]) KeyAt(i int) Key {
	return s.keys[i]
}

// Each calls fn for every live value in dense order. fn must not push or erase.
//
// Parameters:
//   - fn: the callback receiving each key and a pointer to its value
func (s *Store[T]) Each(fn func(k Key, v *T)) {
	for i := range s.values {
		fn(s.keys[i], &s.values[i])
	}
}

// Keys returns a copy of all live keys in dense order.
func (s *Store[T]) Keys() []Key {
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	return out
}
