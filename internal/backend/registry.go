package backend

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/agbru/tmmcalc/internal/errors"
)

// Creator builds a backend instance for the given scheduling options.
type Creator func(opts Options) Backend

// Registry maintains a thread-safe set of backend creators and caches the
// instances built with the registry's current options.
type Registry struct {
	mu        sync.RWMutex
	creators  map[string]Creator
	instances map[string]Backend
	opts      Options
}

// NewRegistry creates a registry with the built-in backends pre-registered.
//
// Pre-registered backends:
//   - "serial": pure Go kernels on the calling goroutine
//   - "parallel": pure Go kernels chunked across goroutines
//   - "gonum": gonum BLAS and cmplxs kernels, chunked across goroutines
//
// Returns:
//   - *Registry: A new registry with default backends registered.
func NewRegistry() *Registry {
	r := &Registry{
		creators:  make(map[string]Creator),
		instances: make(map[string]Backend),
		opts:      DefaultOptions(),
	}
	_ = r.Register("serial", func(Options) Backend { return NewSerial() })
	_ = r.Register("parallel", NewParallel)
	_ = r.Register("gonum", NewGonum)
	return r
}

// Register adds a backend under name, replacing any previous registration.
//
// Parameters:
//   - name: The unique identifier for the backend.
//   - creator: A function that builds the backend.
//
// Returns:
//   - error: An error if the name is empty or the creator is nil.
func (r *Registry) Register(name string, creator Creator) error {
	if name == "" || creator == nil {
		return fmt.Errorf("backend: registration needs a name and a creator")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creators[name] = creator
	delete(r.instances, name)
	return nil
}

// SetOptions changes the scheduling options used by Get and drops the cached
// instances so they are rebuilt with the new options.
func (r *Registry) SetOptions(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts.normalize()
	r.instances = make(map[string]Backend)
}

// Create builds a fresh, uncached backend with explicit options.
//
// Returns:
//   - Backend: The new backend.
//   - error: A BackendUnavailableError if name is not registered.
func (r *Registry) Create(name string, opts Options) (Backend, error) {
	r.mu.RLock()
	creator, ok := r.creators[name]
	r.mu.RUnlock()
	if !ok {
		return nil, r.unavailable(name)
	}
	return creator(opts.normalize()), nil
}

// Get returns the cached backend registered under name, building it on
// first use.
//
// Returns:
//   - Backend: The backend instance.
//   - error: A BackendUnavailableError if name is not registered.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	if b, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return b, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.instances[name]; ok {
		return b, nil
	}
	creator, ok := r.creators[name]
	if !ok {
		return nil, apperrors.BackendUnavailableError{Name: name, Available: r.listLocked()}
	}
	b := creator(r.opts)
	r.instances[name] = b
	return b, nil
}

// MustGet is like Get but panics if the backend is not registered.
func (r *Registry) MustGet(name string) Backend {
	b, err := r.Get(name)
	if err != nil {
		panic(fmt.Sprintf("backend: required backend not found: %s", name))
	}
	return b
}

// Has reports whether a backend is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.creators[name]
	return ok
}

// List returns the registered backend names in alphabetical order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked()
}

// GetAll returns every registered backend, building the missing instances.
func (r *Registry) GetAll() map[string]Backend {
	names := r.List()
	all := make(map[string]Backend, len(names))
	for _, name := range names {
		if b, err := r.Get(name); err == nil {
			all[name] = b
		}
	}
	return all
}

func (r *Registry) listLocked() []string {
	names := make([]string, 0, len(r.creators))
	for name := range r.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) unavailable(name string) error {
	return apperrors.BackendUnavailableError{Name: name, Available: r.List()}
}

// globalRegistry is the default global registry instance.
var globalRegistry = NewRegistry()

// GlobalRegistry returns the process-wide registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a backend to the global registry.
func Register(name string, creator Creator) error {
	return globalRegistry.Register(name, creator)
}
