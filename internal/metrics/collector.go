// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and records the engine's Prometheus metrics. All
// metrics share one namespace and are registered through promauto, so a
// process creates at most one Collector per namespace.
type Collector struct {
	// Team formation metrics
	teamsFormed       *prometheus.CounterVec
	teamsDisbanded    prometheus.Counter
	teamAdjustments   prometheus.Counter
	formationDuration *prometheus.HistogramVec
	teamSize          *prometheus.HistogramVec

	// Negotiation metrics
	negotiationsCreated   *prometheus.CounterVec
	negotiationsCompleted *prometheus.CounterVec
	proposalsSubmitted    prometheus.Counter
	proposalsResolved     *prometheus.CounterVec
	conflictsResolved     prometheus.Counter
	compromisesSuggested  *prometheus.CounterVec

	// Allocation metrics
	allocationsTotal *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector and registers its metrics under the
// given namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.teamsFormed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teams_formed_total",
			Help:      "Total number of teams formed",
		},
		[]string{"strategy"},
	)

	c.teamsDisbanded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teams_disbanded_total",
			Help:      "Total number of teams disbanded",
		},
	)

	c.teamAdjustments = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_adjustments_total",
			Help:      "Total number of team composition adjustments that changed a team",
		},
	)

	c.formationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "team_formation_duration_seconds",
			Help:      "Team formation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	c.teamSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "team_size",
			Help:      "Number of members in formed teams",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 12, 20},
		},
		[]string{"strategy"},
	)

	c.negotiationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_created_total",
			Help:      "Total number of negotiations created",
		},
		[]string{"type"},
	)

	c.negotiationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_completed_total",
			Help:      "Total number of negotiations that reached a terminal state",
		},
		[]string{"type", "status"},
	)

	c.proposalsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_submitted_total",
			Help:      "Total number of proposals submitted",
		},
	)

	c.proposalsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proposals_resolved_total",
			Help:      "Total number of proposals resolved",
		},
		[]string{"status"},
	)

	c.conflictsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_resolved_total",
			Help:      "Total number of conflicts resolved by picking a winning proposal",
		},
	)

	c.compromisesSuggested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compromises_suggested_total",
			Help:      "Total number of compromise proposals synthesized",
		},
		[]string{"type"},
	)

	c.allocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Total number of task allocation runs",
		},
		[]string{"strategy"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordTeamFormed records one successful team formation.
func (c *Collector) RecordTeamFormed(strategy string, size int, duration time.Duration) {
	c.teamsFormed.WithLabelValues(strategy).Inc()
	c.teamSize.WithLabelValues(strategy).Observe(float64(size))
	c.formationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordTeamDisbanded records one team disband.
func (c *Collector) RecordTeamDisbanded() {
	c.teamsDisbanded.Inc()
}

// RecordTeamAdjusted records one composition adjustment that changed a team.
func (c *Collector) RecordTeamAdjusted() {
	c.teamAdjustments.Inc()
}

// RecordNegotiationCreated records one negotiation creation.
func (c *Collector) RecordNegotiationCreated(negotiationType string) {
	c.negotiationsCreated.WithLabelValues(negotiationType).Inc()
}

// RecordNegotiationCompleted records a negotiation reaching a terminal state.
func (c *Collector) RecordNegotiationCompleted(negotiationType, status string) {
	c.negotiationsCompleted.WithLabelValues(negotiationType, status).Inc()
}

// RecordProposalSubmitted records one proposal submission.
func (c *Collector) RecordProposalSubmitted() {
	c.proposalsSubmitted.Inc()
}

// RecordProposalResolved records one proposal resolution.
func (c *Collector) RecordProposalResolved(status string) {
	c.proposalsResolved.WithLabelValues(status).Inc()
}

// RecordConflictResolved records one conflict resolved to a winning proposal.
func (c *Collector) RecordConflictResolved() {
	c.conflictsResolved.Inc()
}

// RecordCompromiseSuggested records one synthesized compromise.
func (c *Collector) RecordCompromiseSuggested(negotiationType string) {
	c.compromisesSuggested.WithLabelValues(negotiationType).Inc()
}

// RecordAllocation records one allocation run.
func (c *Collector) RecordAllocation(strategy string) {
	c.allocationsTotal.WithLabelValues(strategy).Inc()
}
