// Package emit provides the pluggable code emission system.
// Emitters turn a resolved schema into target source text (Go types, CEL
// rule sets, JSON or YAML documents).
package emit

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/datalang/core/schema"
)

// Emitter converts a resolved schema to a target format.
type Emitter interface {
	// Name returns the target name (e.g., "go", "celrules", "json").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Extension returns the file extension of the output, including the dot.
	Extension() string

	// Emit renders s.
	Emit(s *schema.Schema, opts Options) ([]byte, error)
}

// Options configures emission.
type Options struct {
	// Package is the package name for source targets.
	Package string

	// Compact minimizes whitespace (for json).
	Compact bool
}

// DefaultPackage is used when Options.Package is empty.
const DefaultPackage = "models"

// ErrInvalidPackage is returned by source emitters for a package name that
// is not a valid identifier in the target language.
var ErrInvalidPackage = errors.New("invalid package name")

// PackageName returns opts.Package or DefaultPackage.
func (o Options) PackageName() string {
	if o.Package == "" {
		return DefaultPackage
	}
	return o.Package
}

// Registry manages registered emitters.
type Registry struct {
	mu         sync.RWMutex
	emitters   map[string]Emitter
	defaultTgt string
}

// NewRegistry creates a new emitter registry.
func NewRegistry() *Registry {
	return &Registry{
		emitters:   make(map[string]Emitter),
		defaultTgt: "go",
	}
}

// Register adds an emitter to the registry.
func (r *Registry) Register(e Emitter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emitters[e.Name()]; exists {
		return fmt.Errorf("emitter %q already registered", e.Name())
	}

	r.emitters[e.Name()] = e
	return nil
}

// Get returns an emitter by name.
func (r *Registry) Get(name string) (Emitter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.emitters[name]
	return e, ok
}

// Default returns the default emitter, or nil for an empty registry.
func (r *Registry) Default() Emitter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.emitters[r.defaultTgt]; ok {
		return e
	}
	for _, name := range r.sortedNames() {
		return r.emitters[name]
	}
	return nil
}

// SetDefault sets the default emitter.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emitters[name]; !exists {
		return fmt.Errorf("emitter %q not registered", name)
	}

	r.defaultTgt = name
	return nil
}

// List returns all registered emitter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.emitters))
	for name := range r.emitters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global emitter registry. Backends register
// themselves from init.
var DefaultRegistry = NewRegistry()

// Register adds an emitter to the default registry.
func Register(e Emitter) error {
	return DefaultRegistry.Register(e)
}

// Get returns an emitter from the default registry.
func Get(name string) (Emitter, bool) {
	return DefaultRegistry.Get(name)
}

// List returns all emitter names from the default registry.
func List() []string {
	return DefaultRegistry.List()
}
