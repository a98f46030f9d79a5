package cache

import (
	"fmt"
	"maps"

	"github.com/bytedance/sonic"
)

// Params is the parameter record of a key, e.g. {page: 1, limit: 10}.
type Params map[string]any

// Clone returns a shallow copy; nil stays nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Key identifies a cached resource request. Two keys are equal when their
// resource names match and their parameters encode to the same canonical
// form (object keys sorted, numbers normalised). Keys are immutable.
type Key struct {
	resource string
	params   Params
	id       string
}

// NewKey builds a key, copying params.
func NewKey(resource string, params Params) Key {
	p := params.Clone()
	return Key{
		resource: resource,
		params:   p,
		id:       resource + "?" + canonical(p),
	}
}

// Resource returns the resource name.
func (k Key) Resource() string { return k.resource }

// Params returns a copy of the key's parameters.
func (k Key) Params() Params { return k.params.Clone() }

// String returns the canonical identity of the key.
func (k Key) String() string {
	if k.id == "" {
		return k.resource + "?" + canonical(k.params)
	}
	return k.id
}

// Equal reports whether k and o identify the same request.
func (k Key) Equal(o Key) bool { return k.String() == o.String() }

func canonical(p Params) string {
	if len(p) == 0 {
		return "{}"
	}
	// ConfigStd sorts map keys at every depth.
	b, err := sonic.ConfigStd.Marshal(p)
	if err != nil {
		// fmt also prints maps in key order.
		return fmt.Sprintf("%v", map[string]any(p))
	}
	return string(b)
}

// Pattern selects keys for invalidation: either every key of one resource
// name or a single exact key.
type Pattern struct {
	resource string
	key      *Key
}

// ByResource matches every key whose resource name is name, whatever its
// parameters.
func ByResource(name string) Pattern {
	return Pattern{resource: name}
}

// ByKey matches exactly k.
func ByKey(k Key) Pattern {
	return Pattern{resource: k.resource, key: &k}
}

// Resource returns the resource name the pattern targets.
func (p Pattern) Resource() string { return p.resource }

// Exact returns the key of an exact pattern.
func (p Pattern) Exact() (Key, bool) {
	if p.key == nil {
		return Key{}, false
	}
	return *p.key, true
}

// Matches reports whether k is selected by the pattern.
func (p Pattern) Matches(k Key) bool {
	if p.key != nil {
		return p.key.Equal(k)
	}
	return p.resource == k.resource
}

func (p Pattern) String() string {
	if p.key != nil {
		return p.key.String()
	}
	return p.resource + "?*"
}
