package resource

import "go.uber.org/zap"

// ManagerBuilderOption is a function that configures a Manager during construction.
type ManagerBuilderOption[T any] func(*Manager[T])

// WithRelease sets the function that releases a record's backend handles at Flush.
//
// Parameters:
//   - release: called exactly once per record, before it is erased
//
// Returns:
//   - ManagerBuilderOption[T]: a function that applies the release option to a Manager
func WithRelease[T any](release func(rec *T)) ManagerBuilderOption[T] {
	return func(m *Manager[T]) {
		m.release = release
	}
}

// WithLogger sets the logger; the manager logs under a child named after itself.
//
// Parameters:
//   - log: the parent logger
//
// Returns:
//   - ManagerBuilderOption[T]: a function that applies the logger option to a Manager
func WithLogger[T any](log *zap.Logger) ManagerBuilderOption[T] {
	return func(m *Manager[T]) {
		if log != nil {
			m.log = log
		}
	}
}

// WithCapacity sets the initial record capacity.
func WithCapacity[T any](capacity int) ManagerBuilderOption[T] {
	return func(m *Manager[T]) {
		if capacity > 0 {
			m.capacity = capacity
		}
	}
}
