// Package registry holds the schemas derived at startup and wires the
// relations between them. A Registry is built once by the derivation
// pipeline and frozen before any request is served.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/artpar/modelgate/core/convention"
	"github.com/artpar/modelgate/core/schema"
)

// ErrFrozen is returned when the registry is modified after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Registry maps capitalized model names to derived schemas.
type Registry struct {
	mu sync.RWMutex

	schemas map[string]*convention.Derived

	// tables to schema names
	tables map[string]string

	// join tables by name
	joins map[string]Join

	frozen bool
}

// Join is a many-to-many link table created by relation wiring.
type Join struct {
	Table   string
	Columns []convention.Column
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		schemas: make(map[string]*convention.Derived),
		tables:  make(map[string]string),
		joins:   make(map[string]Join),
	}
}

// Derive derives the schema for a model and registers it under the capitalized
// model name. Registering the same name again replaces the previous schema.
func (r *Registry) Derive(def schema.Definition, props schema.Properties) (*convention.Derived, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, ErrFrozen
	}

	derived := convention.Derive(def, props)

	if owner, exists := r.tables[derived.Table]; exists && owner != derived.Name {
		return nil, fmt.Errorf("table %q already claimed by model %q", derived.Table, owner)
	}

	if prev, exists := r.schemas[derived.Name]; exists {
		delete(r.tables, prev.Table)
	}

	r.schemas[derived.Name] = &derived
	r.tables[derived.Table] = derived.Name

	return &derived, nil
}

// Get returns the schema registered under the model name. The name is capitalized first.
func (r *Registry) Get(name string) (*convention.Derived, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.schemas[schema.Key(name)]
	return d, ok
}

// List returns all registered schemas sorted by name.
func (r *Registry) List() []*convention.Derived {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*convention.Derived, 0, len(r.schemas))
	for _, d := range r.schemas {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out
}

// Joins returns all join tables sorted by name.
func (r *Registry) Joins() []Join {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Join, 0, len(r.joins))
	for _, j := range r.joins {
		out = append(out, j)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Table < out[j].Table
	})

	return out
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
