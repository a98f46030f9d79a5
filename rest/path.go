package rest

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/dailyyoga/dashsync/cache"
	"github.com/valyala/fasthttp"
)

// Expand fills {name} placeholders of path from params and returns the
// parameters left over for the query string.
//
//	Expand("/accounts/{id}/login", {id: "a1", verbose: true}) → "/accounts/a1/login", {verbose: true}
func Expand(path string, params cache.Params) (string, cache.Params, error) {
	if !strings.Contains(path, "{") {
		return path, params, nil
	}
	rest := params.Clone()
	var b strings.Builder
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			b.WriteString(path)
			break
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			b.WriteString(path)
			break
		}
		name := path[open+1 : open+end]
		v, ok := rest[name]
		s, present := queryValue(v)
		if !ok || !present {
			return "", nil, ErrMissingPathParam(path, name)
		}
		b.WriteString(path[:open])
		b.WriteString(url.PathEscape(s))
		delete(rest, name)
		path = path[open+end+1:]
	}
	return b.String(), rest, nil
}

// encodeQuery adds params to args in key order. Nil and empty-string values
// are omitted so an empty search box does not filter.
func encodeQuery(args *fasthttp.Args, params cache.Params) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if s, ok := queryValue(params[k]); ok {
			args.Add(k, s)
		}
	}
}

func queryValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case []string:
		return strings.Join(x, ","), len(x) > 0
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := queryValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	default:
		return fmt.Sprint(x), true
	}
}
