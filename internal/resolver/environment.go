package resolver

import (
	"encoding/json"
	"maps"
	"slices"
)

// An Environment holds the variables bound while resolving a program.
//
// There is a single flat namespace, binding a name that already exists
// overwrites it. An Environment belongs to exactly one [Resolver] and is never
// shared between runs.
//
// The zero Environment is read only, use [NewEnvironment] to create one.
type Environment struct {
	vars map[string]Value
}

// NewEnvironment returns a new, empty [Environment].
func NewEnvironment() Environment {
	return Environment{vars: make(map[string]Value)}
}

// Get returns the value bound to name, and whether it was bound at all.
func (e Environment) Get(name string) (Value, bool) {
	value, ok := e.vars[name]
	return value, ok
}

// Set binds value to name, replacing any existing binding.
func (e Environment) Set(name string, value Value) {
	e.vars[name] = value
}

// Names returns the bound variable names in sorted order.
func (e Environment) Names() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Len returns the number of bound variables.
func (e Environment) Len() int {
	return len(e.vars)
}

// Clone returns a deep copy of the [Environment].
func (e Environment) Clone() Environment {
	return Environment{vars: maps.Clone(e.vars)}
}

// MarshalJSON implements [json.Marshaler] for an [Environment].
func (e Environment) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.vars)
}
