// Package formatter renders CLI listings as table, json or yaml.
// A listing is a list of records plus the columns to show, in order.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Formatter writes records in one output format.
type Formatter interface {
	// Name is the value accepted by --output.
	Name() string

	FormatList(w io.Writer, columns []string, records []map[string]any, opts FormatOptions) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// NoHeader disables the header row for tables.
	NoHeader bool

	// Compact minimizes whitespace in json output.
	Compact bool

	// MaxWidth truncates long table cells (0 = no limit).
	MaxWidth int
}

// Registry holds the formatters by name.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds f. Names are unique.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}
	r.formatters[f.Name()] = f
	return nil
}

// Get returns the formatter registered under name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[name]
	return f, ok
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the table, json and yaml formatters.
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(TableFormatter{})
	r.Register(JSONFormatter{})
	r.Register(YAMLFormatter{})
	return r
}()

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List returns the names in the default registry.
func List() []string {
	return DefaultRegistry.List()
}

// project keeps the given columns of every record, in column order.
func project(columns []string, records []map[string]any) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		row := make(map[string]any, len(columns))
		for _, c := range columns {
			row[c] = rec[c]
		}
		out[i] = row
	}
	return out
}
