// Package metrics records synchronization-core activity.
//
// The cache, bus and coordinator report through the Recorder interface; the
// Prometheus implementation exposes the counters on its own registry so the
// host process decides where (and whether) to serve them.
package metrics

// Recorder receives one call per observable event. Every method is keyed by
// resource name, never by full cache key, to keep label cardinality bounded.
type Recorder interface {
	// FetchStarted counts fetches that reached the resource collaborator.
	FetchStarted(resource string)
	// FetchDeduped counts ensure/poll requests folded into an in-flight fetch.
	FetchDeduped(resource string)
	// FetchFailed counts fetches written as status=error.
	FetchFailed(resource string)
	// FetchRetried counts retry attempts.
	FetchRetried(resource string)
	// ResponseDiscarded counts responses dropped because a newer generation started.
	ResponseDiscarded(resource string)
	// Invalidated counts keys marked stale by the invalidation bus.
	Invalidated(resource string)
	// PollArmed counts poll timers armed.
	PollArmed(resource string)
	// Evicted counts entries removed by a sweep.
	Evicted(resource string)
	// Mutation counts mutations by outcome ("ok" or "error").
	Mutation(outcome string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) FetchStarted(string)      {}
func (Nop) FetchDeduped(string)      {}
func (Nop) FetchFailed(string)       {}
func (Nop) FetchRetried(string)      {}
func (Nop) ResponseDiscarded(string) {}
func (Nop) Invalidated(string)       {}
func (Nop) PollArmed(string)         {}
func (Nop) Evicted(string)           {}
func (Nop) Mutation(string)          {}
