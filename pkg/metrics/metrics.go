package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "interview"

// Collector holds the Prometheus metrics of the follow-up engine and the
// session manager. All methods are safe on a nil *Collector so components can
// run without metrics in tests.
type Collector struct {
	registry *prometheus.Registry

	FollowUps       *prometheus.CounterVec
	Degradations    *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
	SessionsStarted prometheus.Counter
	SessionsEnded   prometheus.Counter
	QuestionsSynced *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		FollowUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "followups_total",
				Help:      "Follow-up questions served, by generation method and source",
			},
			[]string{"generation_method", "source", "cache_hit"},
		),
		Degradations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degradations_total",
				Help:      "Times a strategy could not complete and the chain fell to a lower tier",
			},
			[]string{"strategy", "reason"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "result_cache_lookups_total",
				Help:      "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Latency of each follow-up pipeline stage",
				Buckets:   []float64{.005, .01, .025, .05, .1, .2, .3, .5, .75, 1, 2},
			},
			[]string{"stage"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
		SessionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Interview sessions created",
			},
		),
		SessionsEnded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_completed_total",
				Help:      "Interview sessions that ran out of questions",
			},
		),
		QuestionsSynced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_synced_total",
				Help:      "Corpus questions re-embedded by the sync consumer",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		c.FollowUps,
		c.Degradations,
		c.CacheLookups,
		c.StageDuration,
		c.BreakerState,
		c.SessionsStarted,
		c.SessionsEnded,
		c.QuestionsSynced,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry for the /metrics handler.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) ObserveFollowUp(method, source string, cacheHit bool) {
	if c == nil {
		return
	}
	hit := "false"
	if cacheHit {
		hit = "true"
	}
	c.FollowUps.WithLabelValues(method, source, hit).Inc()
}

func (c *Collector) ObserveDegradation(strategy, reason string) {
	if c == nil {
		return
	}
	c.Degradations.WithLabelValues(strategy, reason).Inc()
}

func (c *Collector) ObserveCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveStage(stage string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// SetBreakerState records a breaker transition. state follows gobreaker's
// numbering.
func (c *Collector) SetBreakerState(name string, state int) {
	if c == nil {
		return
	}
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}

func (c *Collector) SessionStarted() {
	if c == nil {
		return
	}
	c.SessionsStarted.Inc()
}

func (c *Collector) SessionCompleted() {
	if c == nil {
		return
	}
	c.SessionsEnded.Inc()
}

func (c *Collector) ObserveSync(ok bool) {
	if c == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	c.QuestionsSynced.WithLabelValues(status).Inc()
}
