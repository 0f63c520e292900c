package product

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/randalmurphal/docevents/pkg/docevents/registry"
)

// Sentinel errors for handler registration.
var (
	// ErrInvalidRegistration indicates an empty product name or nil handler.
	ErrInvalidRegistration = errors.New("product name and handler are required")

	// ErrOverrideReleased indicates Install was called on a released override.
	ErrOverrideReleased = errors.New("override already released")
)

// Registry maps product names to their handlers.
type Registry struct {
	bindings *registry.Registry[string, Handler]
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: registry.New[string, Handler](),
	}
}

// Register binds name to h. The last registration for a name wins.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" || h == nil {
		return ErrInvalidRegistration
	}
	r.bindings.Register(name, h)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(fmt.Sprintf("failed to register product %q: %v", name, err))
	}
}

// Unregister removes the binding for name.
func (r *Registry) Unregister(name string) {
	r.bindings.Delete(name)
}

// Lookup returns the handler currently bound to name.
// Unknown products are reported by ok == false, never by panic or error.
func (r *Registry) Lookup(name string) (h Handler, ok bool) {
	return r.bindings.Get(name)
}

// Has reports whether name is bound.
func (r *Registry) Has(name string) bool {
	return r.bindings.Has(name)
}

// Products returns the bound product names in lexical order.
func (r *Registry) Products() []string {
	names := r.bindings.Keys()
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every binding taken at a single moment.
func (r *Registry) Snapshot() map[string]Handler {
	return r.bindings.Snapshot()
}

// Len returns the number of bound products.
func (r *Registry) Len() int {
	return r.bindings.Len()
}

// AcquireOverride returns a handle for installing temporary bindings.
// The caller must Release it, typically with defer.
func (r *Registry) AcquireOverride() *Override {
	return &Override{registry: r}
}

// WithOverride runs fn under a fresh override and releases it on every exit
// path. A panic in fn is re-raised after the registry has been restored.
func (r *Registry) WithOverride(fn func(ov *Override) error) error {
	ov := r.AcquireOverride()
	defer ov.Release()
	return fn(ov)
}

// Override records every binding it replaces so that Release can restore
// the registry exactly. Overrides nest like a stack when released in
// reverse order of acquisition.
type Override struct {
	registry *Registry

	mu       sync.Mutex
	undo     []registry.Binding[string, Handler]
	released bool
}

// Install binds name to h for the lifetime of the override.
func (o *Override) Install(name string, h Handler) error {
	if name == "" || h == nil {
		return ErrInvalidRegistration
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return ErrOverrideReleased
	}
	prev := o.registry.bindings.Swap(name, h)
	o.undo = append(o.undo, prev)
	return nil
}

// Installed returns the number of bindings installed through o.
func (o *Override) Installed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.undo)
}

// Release restores every recorded binding, newest first, in one atomic
// update. Calling Release more than once is a no-op.
func (o *Override) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return
	}
	o.released = true

	reversed := make([]registry.Binding[string, Handler], len(o.undo))
	for i, b := range o.undo {
		reversed[len(o.undo)-1-i] = b
	}
	o.registry.bindings.Restore(reversed...)
	o.undo = nil
}

// DefaultRegistry is the process-wide handler registry.
var DefaultRegistry = NewRegistry()

// Register binds a handler in the default registry.
func Register(name string, h Handler) error {
	return DefaultRegistry.Register(name, h)
}

// MustRegister binds a handler in the default registry, panicking on error.
func MustRegister(name string, h Handler) {
	DefaultRegistry.MustRegister(name, h)
}

// Lookup returns the handler bound to name in the default registry.
func Lookup(name string) (Handler, bool) {
	return DefaultRegistry.Lookup(name)
}
