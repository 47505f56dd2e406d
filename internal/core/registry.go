package core

import (
	"fmt"
	"sort"
)

// Registry holds the table definitions for one pipeline. It is built once and
// only read afterwards, so it is safe for concurrent use.
type Registry struct {
	defs map[Kind]TableDefinition
}

// NewRegistry builds a registry from defs. It rejects duplicate kinds,
// unknown kinds and definitions without a cleaner.
func NewRegistry(defs ...TableDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[Kind]TableDefinition, len(defs))}

	for _, def := range defs {
		if def.Info.Kind == KindUnknown {
			return nil, fmt.Errorf("register %q: unknown table kind", def.Info.Label)
		}
		if def.Clean == nil {
			return nil, fmt.Errorf("register %s: no clean function", def.Info.Kind)
		}
		if _, exists := r.defs[def.Info.Kind]; exists {
			return nil, fmt.Errorf("table already registered: %s", def.Info.Kind)
		}

		if def.Info.Source == "" {
			def.Info.Source = def.Info.Kind.Source()
		}
		if len(def.Info.Outputs) == 0 {
			def.Info.Outputs = []string{def.Info.Source}
		}

		r.defs[def.Info.Kind] = def
	}

	return r, nil
}

// Get returns a table definition by kind.
// Returns false if not found.
func (r *Registry) Get(kind Kind) (TableDefinition, bool) {
	def, ok := r.defs[kind]
	return def, ok
}

// Lookup returns the definition registered for a raw table name.
func (r *Registry) Lookup(source string) (TableDefinition, bool) {
	kind, ok := KindFromSource(source)
	if !ok {
		return TableDefinition{}, false
	}
	return r.Get(kind)
}

// All returns all registered table definitions ordered by kind.
func (r *Registry) All() []TableDefinition {
	result := make([]TableDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Kind < result[j].Info.Kind
	})

	return result
}

// TableCount returns the number of registered tables.
func (r *Registry) TableCount() int {
	return len(r.defs)
}
