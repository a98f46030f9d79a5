package rest

import (
	"context"

	"github.com/dailyyoga/dashsync/cache"
)

// Page is a decoded list response.
type Page[T any] struct {
	Items []T
	Total int64
}

// Fetcher adapts GET path into a cache.FetchFunc whose data is the envelope's
// data as generic JSON values (map[string]any, []any, float64, ...).
func Fetcher(c *Client, path string) cache.FetchFunc {
	return Typed[any](c, path)
}

// Typed adapts GET path into a cache.FetchFunc whose data is a T.
func Typed[T any](c *Client, path string) cache.FetchFunc {
	return func(ctx context.Context, params cache.Params) (any, error) {
		if c == nil {
			return nil, ErrNilClient
		}
		res, err := c.Get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		var v T
		if err := res.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Paged adapts GET path into a cache.FetchFunc whose data is a Page[T]. The
// envelope's total is used when present, the item count otherwise.
func Paged[T any](c *Client, path string) cache.FetchFunc {
	return func(ctx context.Context, params cache.Params) (any, error) {
		if c == nil {
			return nil, ErrNilClient
		}
		res, err := c.Get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		var items []T
		if err := res.Decode(&items); err != nil {
			return nil, err
		}
		page := Page[T]{Items: items, Total: int64(len(items))}
		if res.HasTotal {
			page.Total = res.Total
		}
		return page, nil
	}
}
