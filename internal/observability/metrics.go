package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch outcome labels
const (
	BatchOutcomeCommitted = "committed"
	BatchOutcomeFailed    = "failed"
	BatchOutcomeSkipped   = "skipped"
)

// Oracle role labels
const (
	OracleRoleGeneration = "generation"
	OracleRoleEnrichment = "enrichment"
	OracleRoleReasoning  = "reasoning"
)

// Metrics is the pipeline's Prometheus collector set
type Metrics struct {
	SignalsIngested        *prometheus.CounterVec
	SignalsDropped         *prometheus.CounterVec
	PIIRedactions          *prometheus.CounterVec
	Batches                *prometheus.CounterVec
	BatchDuration          prometheus.Histogram
	OracleRequests         *prometheus.CounterVec
	OracleLatency          *prometheus.HistogramVec
	GovernanceTransitions  *prometheus.CounterVec
	GovernanceConflicts    prometheus.Counter
	AuditEntries           prometheus.Counter
	ConsecutiveBatchFails  prometheus.Gauge
	SkippedTicks           prometheus.Counter
}

// NewMetrics registers the pipeline collectors on the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SignalsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssis_signals_ingested_total",
			Help: "Signals that completed the pipeline and entered governance.",
		}, []string{"category", "governance_state"}),
		SignalsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssis_signals_dropped_total",
			Help: "Signals dropped before ingestion.",
		}, []string{"reason"}),
		PIIRedactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssis_pii_redactions_total",
			Help: "PII spans masked by the privacy shield.",
		}, []string{"pii_type"}),
		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssis_batches_total",
			Help: "Batch cycles by outcome.",
		}, []string{"outcome"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ssis_batch_duration_seconds",
			Help:    "Wall time of one batch cycle from production to commit.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		OracleRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssis_oracle_requests_total",
			Help: "Oracle calls by role and outcome.",
		}, []string{"role", "outcome"}),
		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ssis_oracle_latency_seconds",
			Help:    "Oracle call latency by role.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"role"}),
		GovernanceTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ssis_governance_transitions_total",
			Help: "Committed governance state transitions.",
		}, []string{"to_state"}),
		GovernanceConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "ssis_governance_conflicts_total",
			Help: "Transitions rejected because another was in flight.",
		}),
		AuditEntries: factory.NewCounter(prometheus.CounterOpts{
			Name: "ssis_audit_entries_total",
			Help: "Entries appended to the audit log.",
		}),
		ConsecutiveBatchFails: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ssis_consecutive_batch_failures",
			Help: "Batch cycles failed in a row; resets on success.",
		}),
		SkippedTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "ssis_scheduler_skipped_ticks_total",
			Help: "Scheduler ticks skipped because a batch was still running.",
		}),
	}
}
