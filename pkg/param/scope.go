package param

import (
	"maps"
	"slices"
)

// Scope is an immutable set of named parameters with an optional parent.
// Lookups walk outward through parents. A nil *Scope is an empty scope.
type Scope struct {
	parent *Scope
	params map[string]Parameter
}

// NewScope returns a root scope holding a copy of params.
func NewScope(params map[string]Parameter) *Scope {
	return (*Scope)(nil).Push(params)
}

// Push returns a child scope of s holding a copy of params.
func (s *Scope) Push(params map[string]Parameter) *Scope {
	return &Scope{parent: s, params: maps.Clone(params)}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	if s == nil {
		return nil
	}
	return s.parent
}

// Lookup finds name in s or the nearest enclosing scope.
func (s *Scope) Lookup(name string) (Parameter, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if p, ok := cur.params[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// Local returns the parameter defined directly in s, ignoring parents.
func (s *Scope) Local(name string) (Parameter, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.params[name]
	return p, ok
}

// Names returns the sorted names defined directly in s.
func (s *Scope) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.params))
}

// Visible returns the sorted names resolvable from s, including those
// inherited from parents.
func (s *Scope) Visible() []string {
	seen := make(map[string]struct{})
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.params {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
