// Package state implements the ReadSet/MutationBatch contract described in
// spec.md §4.5: the declarative description of what a state gate reads
// and writes, resolved and applied by internal/runner.
package state

import "github.com/roach88/nysql/internal/ir"

// ReadSet declares the refs a state gate needs resolved before it runs:
// specific names, and name prefixes whose entire matching set is needed.
type ReadSet struct {
	Refs     []string
	Patterns []string
}

// NewReadSet builds an empty ReadSet.
func NewReadSet() *ReadSet {
	return &ReadSet{}
}

// WithRef adds a specific ref name to resolve.
func (r *ReadSet) WithRef(name string) *ReadSet {
	r.Refs = append(r.Refs, name)
	return r
}

// WithPattern adds a prefix pattern to resolve.
func (r *ReadSet) WithPattern(prefix string) *ReadSet {
	r.Patterns = append(r.Patterns, prefix)
	return r
}

// NamedEntry is one name→value pair within a resolved pattern, kept in the
// order the backing ref namespace returned it (sorted by name).
type NamedEntry struct {
	Name  string
	Value ir.Value
}

// Resolved is the state object produced by resolving a ReadSet: a mapping
// from ref name to value-or-absent, and a mapping from pattern prefix to
// the ordered set of matching name/value pairs.
type Resolved struct {
	refs     map[string]ir.Value
	patterns map[string][]NamedEntry
}

// NewResolved builds an empty Resolved state.
func NewResolved() *Resolved {
	return &Resolved{
		refs:     make(map[string]ir.Value),
		patterns: make(map[string][]NamedEntry),
	}
}

// SetRef records the resolved value (or absence) for a specific ref name.
func (s *Resolved) SetRef(name string, value ir.Value, present bool) {
	if present {
		s.refs[name] = value
	}
}

// Ref returns the value resolved for name, and whether it was present.
func (s *Resolved) Ref(name string) (ir.Value, bool) {
	v, ok := s.refs[name]
	return v, ok
}

// SetPattern records the ordered matches for a prefix pattern.
func (s *Resolved) SetPattern(prefix string, entries []NamedEntry) {
	s.patterns[prefix] = entries
}

// Pattern returns the ordered matches resolved for prefix.
func (s *Resolved) Pattern(prefix string) []NamedEntry {
	return s.patterns[prefix]
}
