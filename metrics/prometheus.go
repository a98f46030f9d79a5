package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus is a Recorder backed by client_golang counters.
type Prometheus struct {
	registry *prometheus.Registry

	fetches     *prometheus.CounterVec
	deduped     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	retries     *prometheus.CounterVec
	discarded   *prometheus.CounterVec
	invalidated *prometheus.CounterVec
	polls       *prometheus.CounterVec
	evictions   *prometheus.CounterVec
	mutations   *prometheus.CounterVec
}

// NewPrometheus creates a Prometheus recorder with a private registry.
func NewPrometheus(cfg *Config) (*Prometheus, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		defaults := DefaultConfig()
		if cfg.Namespace == "" {
			cfg.Namespace = defaults.Namespace
		}
		if cfg.Subsystem == "" {
			cfg.Subsystem = defaults.Subsystem
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}

	p := &Prometheus{
		registry:    prometheus.NewRegistry(),
		fetches:     counter("fetches_total", "Fetches issued to the resource collaborator.", "resource"),
		deduped:     counter("fetches_deduped_total", "Fetch requests folded into an in-flight fetch.", "resource"),
		failures:    counter("fetch_failures_total", "Fetches that ended in status=error.", "resource"),
		retries:     counter("fetch_retries_total", "Fetch retry attempts.", "resource"),
		discarded:   counter("responses_discarded_total", "Responses discarded for a superseded generation.", "resource"),
		invalidated: counter("invalidations_total", "Keys marked stale by invalidation.", "resource"),
		polls:       counter("polls_armed_total", "Poll timers armed.", "resource"),
		evictions:   counter("evictions_total", "Idle entries evicted.", "resource"),
		mutations:   counter("mutations_total", "Mutations by outcome.", "outcome"),
	}

	cs := []prometheus.Collector{
		p.fetches, p.deduped, p.failures, p.retries, p.discarded,
		p.invalidated, p.polls, p.evictions, p.mutations,
	}
	if cfg.EnableGoMetrics {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range cs {
		if err := p.registry.Register(c); err != nil {
			return nil, ErrRegister(err)
		}
	}
	return p, nil
}

// Registry returns the registry holding the recorder's collectors.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) FetchStarted(resource string) { p.fetches.WithLabelValues(resource).Inc() }
func (p *Prometheus) FetchDeduped(resource string) { p.deduped.WithLabelValues(resource).Inc() }
func (p *Prometheus) FetchFailed(resource string)  { p.failures.WithLabelValues(resource).Inc() }
func (p *Prometheus) FetchRetried(resource string) { p.retries.WithLabelValues(resource).Inc() }
func (p *Prometheus) ResponseDiscarded(resource string) {
	p.discarded.WithLabelValues(resource).Inc()
}
func (p *Prometheus) Invalidated(resource string) { p.invalidated.WithLabelValues(resource).Inc() }
func (p *Prometheus) PollArmed(resource string)   { p.polls.WithLabelValues(resource).Inc() }
func (p *Prometheus) Evicted(resource string)     { p.evictions.WithLabelValues(resource).Inc() }
func (p *Prometheus) Mutation(outcome string)     { p.mutations.WithLabelValues(outcome).Inc() }
