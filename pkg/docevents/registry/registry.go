package registry

import "sync"

// Registry is a thread-safe map of bindings indexed by key.
// Readers always observe a state produced by one complete write:
// Swap and Restore are applied under a single write lock.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// Binding is the state of one key at a point in time: either bound to
// Value, or unbound.
type Binding[K comparable, V any] struct {
	Key   K
	Value V
	Bound bool
}

// New creates a new empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Register binds key to value, replacing any existing binding.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Swap binds key to value and returns the binding it replaced.
func (r *Registry[K, V]) Swap(key K, value V) Binding[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.entries[key]
	r.entries[key] = value
	return Binding[K, V]{Key: key, Value: prev, Bound: ok}
}

// Restore applies the given bindings in order as one atomic update.
// Unbound bindings delete their key.
func (r *Registry[K, V]) Restore(bindings ...Binding[K, V]) {
	if len(bindings) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bindings {
		if b.Bound {
			r.entries[b.Key] = b.Value
		} else {
			delete(r.entries, b.Key)
		}
	}
}

// Get returns the value for a key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has returns true if the key is bound.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes a key from the registry.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Keys returns all bound keys.
// The order is not guaranteed.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of bound keys.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of every binding.
func (r *Registry[K, V]) Snapshot() map[K]V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[K]V, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	return snapshot
}
