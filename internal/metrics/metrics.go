package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Determinations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statebot_determinations_total",
			Help: "Total determination cycles by outcome",
		},
		[]string{"outcome"}, // "success" | "error" | "noop"
	)

	DeterminationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "statebot_determination_duration_seconds",
			Help: "Wall time of determination cycles",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statebot_cache_lookups_total",
			Help: "Determination cache lookups by result",
		},
		[]string{"result"}, // "hit" | "miss" | "expired"
	)

	BackendRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statebot_backend_retries_total",
			Help: "Failed backend attempts that triggered a retry",
		},
		[]string{"provider"},
	)

	Transitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "statebot_transitions_total",
			Help: "State transitions applied to the record",
		},
	)

	ActiveFacts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "statebot_active_facts",
			Help: "Facts currently held by the bot",
		},
	)
)
