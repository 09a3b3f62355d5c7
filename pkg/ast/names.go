package ast

import (
	"maps"
	"slices"
)

// NameSet is a set of identifiers.
type NameSet struct {
	names map[string]struct{}
}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Add inserts name into the set.
func (s *NameSet) Add(name string) {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	s.names[name] = struct{}{}
}

// Has reports whether name is in the set. A nil set is empty.
func (s *NameSet) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Merge adds every name of other.
func (s *NameSet) Merge(other *NameSet) {
	if other == nil {
		return
	}
	for n := range other.names {
		s.Add(n)
	}
}

// Len returns the number of names.
func (s *NameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Sorted returns the names in lexical order.
func (s *NameSet) Sorted() []string {
	if s.Len() == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(s.names))
}

// Clone returns an independent copy.
func (s *NameSet) Clone() *NameSet {
	c := NewNameSet()
	c.Merge(s)
	return c
}

// Equal reports whether both sets hold the same names.
func (s *NameSet) Equal(other *NameSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, n := range s.Sorted() {
		if !other.Has(n) {
			return false
		}
	}
	return true
}
