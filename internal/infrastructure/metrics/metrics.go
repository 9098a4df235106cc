package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "links_created_total",
		Help: "Total number of short links created",
	})

	LinkDuplicates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_duplicate_total",
			Help: "Create requests rejected because the code or alias already exists",
		},
		[]string{"reason"},
	)

	LinkVisits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_visits_total",
			Help: "Resolution attempts by outcome",
		},
		[]string{"outcome"},
	)

	LinksDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_deleted_total",
			Help: "Links removed by explicit delete",
		},
		[]string{"by"},
	)

	ExpiredLinksPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "links_expired_purged_total",
		Help: "Links removed by the expiration sweeper",
	})

	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "link_sweep_failures_total",
		Help: "Expiration sweeps that failed",
	})

	SweepSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "link_sweep_skipped_total",
		Help: "Expiration sweeps skipped because another instance held the lock",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "link_sweep_duration_seconds",
		Help:    "Duration of expiration sweeps",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// Visit outcomes.
const (
	OutcomeVisited  = "visited"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
)
