package engine

import (
	"sort"

	"github.com/roach88/condwatch/internal/condition"
)

// Registry maps condition names to definitions for the lifetime of a
// Watcher. It holds no persisted state.
type Registry struct {
	defs map[string]condition.Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]condition.Definition)}
}

// Register adds or replaces the definition for def.Name. The name is
// normalized and the options are copied.
func (r *Registry) Register(def condition.Definition) error {
	def.Name = condition.NormalizeName(def.Name)
	if err := def.Validate(); err != nil {
		return NewInvalidConditionError(def.Name, err)
	}
	def.Options = def.Options.Clone()
	r.defs[def.Name] = def
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (condition.Definition, error) {
	key := condition.NormalizeName(name)
	def, ok := r.defs[key]
	if !ok {
		return condition.Definition{}, NewNotFoundError(key)
	}
	return def, nil
}

// Remove drops the definition for name. Reports whether it was registered.
func (r *Registry) Remove(name string) bool {
	key := condition.NormalizeName(name)
	if _, ok := r.defs[key]; !ok {
		return false
	}
	delete(r.defs, key)
	return true
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OfType returns the definitions of type t sorted by name.
func (r *Registry) OfType(t condition.Type) []condition.Definition {
	var defs []condition.Definition
	for _, name := range r.Names() {
		if def := r.defs[name]; def.Type == t {
			defs = append(defs, def)
		}
	}
	return defs
}

// Len returns the number of registered conditions.
func (r *Registry) Len() int {
	return len(r.defs)
}
