package mutation

import "github.com/dailyyoga/dashsync/cache"

// Set is a named invalidation set declared once and reused by every call
// site of the same mutation.
type Set struct {
	Name     string
	Patterns []cache.Pattern
}

// NewSet declares a set from explicit patterns.
func NewSet(name string, patterns ...cache.Pattern) Set {
	return Set{Name: name, Patterns: patterns}
}

// Resources declares a set invalidating every key of each named resource.
func Resources(name string, resources ...string) Set {
	patterns := make([]cache.Pattern, len(resources))
	for i, r := range resources {
		patterns[i] = cache.ByResource(r)
	}
	return Set{Name: name, Patterns: patterns}
}

// With returns a copy of s extended with more patterns, e.g. an exact key
// known only at call time.
func (s Set) With(patterns ...cache.Pattern) Set {
	out := make([]cache.Pattern, 0, len(s.Patterns)+len(patterns))
	out = append(out, s.Patterns...)
	out = append(out, patterns...)
	return Set{Name: s.Name, Patterns: out}
}

// Validate rejects unnamed sets and empty resource names.
func (s Set) Validate() error {
	if s.Name == "" {
		return ErrInvalidSet(s.Name, "name is required")
	}
	for _, p := range s.Patterns {
		if p.Resource() == "" {
			return ErrInvalidSet(s.Name, "pattern without resource name")
		}
	}
	return nil
}

// Resources returns the resource names the set touches, in declared order
// and without duplicates.
func (s Set) Resources() []string {
	seen := make(map[string]struct{}, len(s.Patterns))
	var out []string
	for _, p := range s.Patterns {
		if _, ok := seen[p.Resource()]; ok {
			continue
		}
		seen[p.Resource()] = struct{}{}
		out = append(out, p.Resource())
	}
	return out
}
