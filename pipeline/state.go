// Package pipeline implements the processing-stage engine: a thread-safe
// artifact store shared between stages, a static registry of stage
// descriptors, and an engine that runs stage processors while enforcing the
// per-stage status machine (Idle, Ready, Processing, Completed, Failed).
package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Releaser is implemented by artifact values that own an external resource,
// such as a temp file on disk. The engine releases a value exactly once:
// when it is superseded by a re-run of its producing stage, or when the
// state is closed.
type Releaser interface {
	Release()
}

// State is the thread-safe artifact store shared by all stages. A key is
// present iff its producing stage has completed at least once; re-runs
// replace the value wholesale.
type State struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewState creates a new empty State.
func NewState() *State {
	return &State{data: make(map[string]any)}
}

// Get retrieves an artifact by key. Returns false if the key does not exist.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Has reports whether an artifact is present.
func (s *State) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Set stores an artifact by key. If an existing value is superseded and
// implements Releaser, it is released.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	old, existed := s.data[key]
	s.data[key] = value
	s.mu.Unlock()

	if existed && old != nil {
		if r, ok := old.(Releaser); ok && old != value {
			r.Release()
		}
	}
}

// Keys returns the sorted keys of all present artifacts.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close releases every stored value that implements Releaser and clears the
// store. Safe to call once at shutdown; superseded values were already
// released on replacement.
func (s *State) Close() {
	s.mu.Lock()
	data := s.data
	s.data = make(map[string]any)
	s.mu.Unlock()

	for _, v := range data {
		if r, ok := v.(Releaser); ok {
			r.Release()
		}
	}
}

// Port is a compile-time typed accessor for State.
// It prevents type mismatches between stages at compile time.
type Port[T any] struct {
	Key string
}

// Read retrieves a typed artifact from state using a Port.
// Returns an error if the key is missing or the type doesn't match.
func Read[T any](state *State, port Port[T]) (T, error) {
	var zero T
	raw, ok := state.Get(port.Key)
	if !ok {
		return zero, fmt.Errorf("pipeline: artifact %q not found", port.Key)
	}
	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("pipeline: artifact %q: expected %T, got %T", port.Key, zero, raw)
	}
	return val, nil
}

// Write stores a typed artifact into state using a Port.
func Write[T any](state *State, port Port[T], value T) {
	state.Set(port.Key, value)
}
