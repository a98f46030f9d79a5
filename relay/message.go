package relay

import (
	"github.com/bytedance/sonic"
	"github.com/dailyyoga/dashsync/cache"
)

// message is the wire form of one invalidation.
type message struct {
	Origin   string        `json:"origin"`
	Patterns []wirePattern `json:"patterns"`
}

type wirePattern struct {
	Resource string       `json:"resource"`
	Params   cache.Params `json:"params,omitempty"`
	Exact    bool         `json:"exact,omitempty"`
}

func encode(origin string, patterns []cache.Pattern) ([]byte, error) {
	m := message{Origin: origin, Patterns: make([]wirePattern, len(patterns))}
	for i, p := range patterns {
		wp := wirePattern{Resource: p.Resource()}
		if k, ok := p.Exact(); ok {
			wp.Params = k.Params()
			wp.Exact = true
		}
		m.Patterns[i] = wp
	}
	return sonic.Marshal(m)
}

func decode(payload []byte) (string, []cache.Pattern, error) {
	var m message
	if err := sonic.Unmarshal(payload, &m); err != nil {
		return "", nil, ErrDecode(err)
	}
	patterns := make([]cache.Pattern, 0, len(m.Patterns))
	for _, wp := range m.Patterns {
		if wp.Resource == "" {
			continue
		}
		if wp.Exact {
			patterns = append(patterns, cache.ByKey(cache.NewKey(wp.Resource, wp.Params)))
			continue
		}
		patterns = append(patterns, cache.ByResource(wp.Resource))
	}
	return m.Origin, patterns, nil
}
