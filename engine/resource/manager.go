// package resource provides the generic per-type GPU resource manager.
//
// A Manager owns the records of one resource kind in a slot.Store and hands out stable keys.
// Removal is never synchronous: EnqueueRemoval parks the key until Flush, which the scene
// runs once per frame after command submission, so a handle is never released while a
// recorded command buffer may still reference it.
package resource

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/slot"
	"go.uber.org/zap"
)

// Observer is notified with the key of the record an event concerns.
type Observer func(k slot.Key)

// Manager stores records of type T and defers their destruction to Flush.
// It is driven from a single goroutine.
type Manager[T any] struct {
	name     string
	store    *slot.Store[T]
	removals []slot.Key
	retiring map[slot.Key]struct{}
	release  func(rec *T)
	capacity int
	preset   slot.Key
	log      *zap.Logger

	onInsert []Observer
	onRetire []Observer
	onChange []Observer
	onErase  []Observer
}

// NewManager creates a Manager named name.
//
// Parameters:
//   - name: a label used in logs and statistics
//   - opts: builder options
//
// Returns:
//   - *Manager[T]: the new manager
func NewManager[T any](name string, opts ...ManagerBuilderOption[T]) *Manager[T] {
	m := &Manager[T]{
		name:     name,
		retiring: make(map[slot.Key]struct{}),
		capacity: 16,
		preset:   slot.NullKey,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.store = slot.NewStore[T](m.capacity)
	m.log = m.log.Named(name)
	return m
}

// Name returns the manager's label.
func (m *Manager[T]) Name() string {
	return m.name
}

// Insert stores rec and notifies insert observers.
//
// Parameters:
//   - rec: the record; the manager takes ownership of its handles
//
// Returns:
//   - slot.Key: the stable key of the record
func (m *Manager[T]) Insert(rec T) slot.Key {
	k := m.push(rec)
	notify(m.onInsert, k)
	return k
}

func (m *Manager[T]) push(rec T) slot.Key {
	k := m.store.PushBack(rec)
	m.log.Debug("insert", zap.Stringer("key", k))
	return k
}

// Find reports whether k addresses a live record. Records queued for removal stay live
// until the next Flush.
func (m *Manager[T]) Find(k slot.Key) bool {
	_, ok := m.store.Find(k)
	return ok
}

// At returns the record addressed by the live key k.
// The pointer is valid until the next Insert or Flush.
func (m *Manager[T]) At(k slot.Key) *T {
	return m.store.At(k)
}

// Get returns the record addressed by k, or false if k is not live.
//
// Parameters:
//   - k: the key to resolve
//
// Returns:
//   - *T: the record, valid until the next Insert or Flush
//   - bool: false if k is stale
func (m *Manager[T]) Get(k slot.Key) (*T, bool) {
	if !m.Find(k) {
		return nil, false
	}
	return m.store.At(k), true
}

// Usable reports whether k addresses a live record that is not queued for removal.
func (m *Manager[T]) Usable(k slot.Key) bool {
	return m.Find(k) && !m.Retiring(k)
}

// Len returns the number of live records, including those queued for removal.
func (m *Manager[T]) Len() int {
	return m.store.Len()
}

// Each calls fn for every live record. fn must not Insert or Flush.
func (m *Manager[T]) Each(fn func(k slot.Key, rec *T)) {
	m.store.Each(fn)
}

// Keys returns a snapshot of every live key.
func (m *Manager[T]) Keys() []slot.Key {
	return m.store.Keys()
}

// EnqueueRemoval queues k for destruction at the next Flush and notifies retire observers.
// Stale keys and keys already queued are ignored.
//
// Parameters:
//   - k: the key to retire
//
// Returns:
//   - bool: true if k was newly queued
func (m *Manager[T]) EnqueueRemoval(k slot.Key) bool {
	if !m.Find(k) {
		return false
	}
	if _, queued := m.retiring[k]; queued {
		return false
	}
	m.retiring[k] = struct{}{}
	m.removals = append(m.removals, k)
	notify(m.onRetire, k)
	return true
}

// Retiring reports whether k is queued for removal.
func (m *Manager[T]) Retiring(k slot.Key) bool {
	_, ok := m.retiring[k]
	return ok
}

// Pending returns the number of keys queued for removal.
func (m *Manager[T]) Pending() int {
	return len(m.removals)
}

// Flush releases and erases every queued record, then notifies erase observers.
// Observers may queue further removals on this manager; those are drained in the same call.
//
// Returns:
//   - int: the number of records erased
func (m *Manager[T]) Flush() int {
	n := 0
	for i := 0; i < len(m.removals); i++ {
		k := m.removals[i]
		if _, ok := m.store.Find(k); ok {
			if m.release != nil {
				m.release(m.store.At(k))
			}
			m.store.Erase(k)
			n++
		}
		delete(m.retiring, k)
		notify(m.onErase, k)
	}
	m.removals = m.removals[:0]
	if n > 0 {
		m.log.Debug("flush", zap.Int("erased", n), zap.Int("live", m.store.Len()))
	}
	return n
}

// NotifyChanged tells change observers that the handles of k were replaced.
func (m *Manager[T]) NotifyChanged(k slot.Key) {
	notify(m.onChange, k)
}

// OnInsert registers an observer fired after a record is inserted.
func (m *Manager[T]) OnInsert(o Observer) { m.onInsert = append(m.onInsert, o) }

// OnRetire registers an observer fired when a key is queued for removal.
func (m *Manager[T]) OnRetire(o Observer) { m.onRetire = append(m.onRetire, o) }

// OnChange registers an observer fired by NotifyChanged.
func (m *Manager[T]) OnChange(o Observer) { m.onChange = append(m.onChange, o) }

// OnErase registers an observer fired after a record is erased by Flush.
func (m *Manager[T]) OnErase(o Observer) { m.onErase = append(m.onErase, o) }

func notify(obs []Observer, k slot.Key) {
	for _, o := range obs {
		o(k)
	}
}

// SetPreset sets the fallback record used when a reference resolves to nothing usable.
func (m *Manager[T]) SetPreset(k slot.Key) {
	m.preset = k
}

// Preset returns the fallback key, or slot.NullKey if none is set.
func (m *Manager[T]) Preset() slot.Key {
	return m.preset
}
