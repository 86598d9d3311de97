package core

import (
	"sync"
	"sync/atomic"
)

type sharedState[T any] struct {
	value   T
	refs    atomic.Int64
	release func(T) error
}

// Shared is a reference-counted handle to a connection shared by several adapters.
// Each holder owns one handle and calls Close exactly once; the underlying value is
// released when the last handle closes.
type Shared[T any] struct {
	state *sharedState[T]
	once  sync.Once
}

// NewShared wraps value in its first handle. release runs when the last handle closes and
// may be nil.
func NewShared[T any](value T, release func(T) error) *Shared[T] {
	st := &sharedState[T]{value: value, release: release}
	st.refs.Store(1)
	return &Shared[T]{state: st}
}

// Retain returns a new handle to the same value.
func (s *Shared[T]) Retain() *Shared[T] {
	s.state.refs.Add(1)
	return &Shared[T]{state: s.state}
}

// Get returns the shared value. It must not be used after Close.
func (s *Shared[T]) Get() T {
	return s.state.value
}

// Refs reports the number of open handles.
func (s *Shared[T]) Refs() int64 {
	return s.state.refs.Load()
}

// Close releases this handle. Closing a handle twice is a no-op.
func (s *Shared[T]) Close() error {
	var err error
	s.once.Do(func() {
		if s.state.refs.Add(-1) == 0 && s.state.release != nil {
			err = s.state.release(s.state.value)
		}
	})
	return err
}
