// Package metrics holds the prometheus collectors of the puzzle service.
// Collectors are registered on the default registry and served at /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Puzzles generated, by kind: basic, enhanced, daily.
	PuzzlesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordconnections_puzzles_generated_total",
			Help: "Total number of puzzles generated",
		},
		[]string{"kind"},
	)

	// Guesses validated, by outcome: correct, one_away, miss, malformed, ignored.
	Guesses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordconnections_guesses_total",
			Help: "Total number of validated guesses",
		},
		[]string{"outcome"},
	)

	// Games that reached won or lost.
	GamesFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordconnections_games_finished_total",
			Help: "Total number of finished games",
		},
		[]string{"state"},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wordconnections_sessions_expired_total",
			Help: "Total number of sessions removed by the expiry sweep",
		},
	)

	// Validation latency, by outcome.
	ValidateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wordconnections_validate_duration_seconds",
			Help:    "Time spent validating guesses",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)

var activeOnce sync.Once

// RegisterActiveSessions exposes count as the active sessions gauge.
// Only the first call registers.
func RegisterActiveSessions(count func() float64) {
	activeOnce.Do(func() {
		promauto.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "wordconnections_active_sessions_current",
				Help: "Current number of live puzzle sessions",
			},
			count,
		)
	})
}
