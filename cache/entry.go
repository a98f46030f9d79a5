package cache

import "time"

// Status is the fetch state of an entry.
type Status int

const (
	// StatusIdle: never fetched, or the last fetch was abandoned.
	StatusIdle Status = iota
	// StatusFetching: a fetch is in flight. Data still holds the previous payload.
	StatusFetching
	// StatusSuccess: Data holds the last successful payload.
	StatusSuccess
	// StatusError: the last fetch failed; Err is set, Data keeps the previous payload.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Entry is an immutable snapshot of the cached state of one key.
type Entry struct {
	Key        Key
	Status     Status
	Data       any
	Err        error
	FetchedAt  time.Time
	StaleAfter time.Duration
	Generation uint64
	// Invalidated is set by the bus and cleared by the next successful write
	// of a fetch started after the invalidation.
	Invalidated bool
	// Subscribers is the number of live subscriptions at snapshot time.
	Subscribers int
}

// HasData reports whether the entry has ever been written successfully.
func (e Entry) HasData() bool { return !e.FetchedAt.IsZero() }

// Stale reports whether the entry should be re-fetched on next access.
// Errored entries are only re-fetched when invalidated or refetched
// explicitly.
func (e Entry) Stale(now time.Time) bool {
	switch e.Status {
	case StatusIdle:
		return true
	case StatusSuccess:
		return e.Invalidated || now.Sub(e.FetchedAt) > e.StaleAfter
	case StatusError:
		return e.Invalidated
	}
	return false
}
