package planner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// searchTotal counts finished searches by status.
	// Labels: "solved", "exhausted", "deadline_exceeded", "canceled"
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craft_planner_searches_total",
		Help: "Total searches by final status",
	}, []string{"status"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "craft_planner_search_duration_seconds",
		Help:    "Wall-clock duration of a search",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60, 300},
	})

	statesExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "craft_planner_states_expanded",
		Help:    "States expanded per search",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	})

	statesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "craft_planner_states_pruned_total",
		Help: "Successor states rejected by the pruning policy",
	})
)

func observeSearch(d Diagnostics) {
	searchTotal.WithLabelValues(d.Status.String()).Inc()
	searchDuration.Observe(d.Elapsed.Seconds())
	statesExpanded.Observe(float64(d.Expanded))
	statesPruned.Add(float64(d.Pruned))
}
