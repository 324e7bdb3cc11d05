package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/internal/privacy"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories/jsonfile"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/audit"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/enrich"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/factory"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/governance"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/reason"
)

// countingGenerator returns one text per requested slot
type countingGenerator struct {
	err error
}

func (g *countingGenerator) Generate(_ context.Context, req *oracle.GenerationRequest) ([]string, error) {
	if g.err != nil {
		return nil, g.err
	}
	texts := make([]string, req.Count)
	for i := range texts {
		texts[i] = fmt.Sprintf("signal text %d about {bank_name}", i)
	}
	return texts, nil
}

// selectiveEnricher fails for texts containing failSubstring
type selectiveEnricher struct {
	failSubstring string
	failAll       bool
}

func (e *selectiveEnricher) Enrich(_ context.Context, raw *models.RawSignal) (*oracle.Enrichment, error) {
	if e.failAll || (e.failSubstring != "" && strings.Contains(raw.Text, e.failSubstring)) {
		return nil, errors.New("enrichment oracle unavailable")
	}
	return &oracle.Enrichment{
		SentimentScore: -0.4,
		Category:       models.CategoryNegative,
		Confidence:     90,
	}, nil
}

type staticReasoner struct {
	urgency models.Urgency
}

func (r *staticReasoner) Reason(context.Context, *models.EnrichedSignal) (*oracle.Reasoning, error) {
	return &oracle.Reasoning{
		Explanation:     "- nothing remarkable",
		SuggestedAction: "monitor",
		Urgency:         r.urgency,
	}, nil
}

type pipelineEnv struct {
	svc        *PipelineService
	governance *governance.GovernanceService
	metrics    *observability.Metrics
}

func newPipelineEnv(t *testing.T, gen oracle.GenerationOracle, enricher oracle.EnrichmentOracle, reasoner oracle.ReasoningOracle, config Config) *pipelineEnv {
	t.Helper()
	dir := t.TempDir()

	signalRepo, err := jsonfile.NewSignalRepository(filepath.Join(dir, "signals.json"))
	require.NoError(t, err)
	auditRepo, err := jsonfile.NewAuditRepository(filepath.Join(dir, "audit.json"))
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := zap.NewNop()
	shield := privacy.NewShield(nil, nil, logger)

	examples := []oracle.Example{
		{Text: "example positive", Category: models.CategoryPositive},
		{Text: "example negative", Category: models.CategoryNegative},
		{Text: "example neutral", Category: models.CategoryNeutral},
		{Text: "example gibberish", Category: models.CategoryGibberish},
	}
	factorySvc, err := factory.NewFactoryService(gen, shield, examples, metrics, logger)
	require.NoError(t, err)

	auditSvc := audit.NewAuditService(auditRepo, metrics, logger)
	governanceSvc := governance.NewGovernanceService(signalRepo, auditSvc, metrics, logger)
	enrichSvc := enrich.NewEnrichService(enricher, 60, metrics, logger)
	reasonSvc := reason.NewReasonService(reasoner, metrics, logger)

	return &pipelineEnv{
		svc: NewPipelineService(factorySvc, enrichSvc, reasonSvc, governanceSvc,
			config, metrics, logger),
		governance: governanceSvc,
		metrics:    metrics,
	}
}

func fixedConfig(size int) Config {
	return Config{
		MinBatchSize:     size,
		MaxBatchSize:     size,
		MaxParallel:      2,
		FailureThreshold: 3,
	}
}

func TestRunBatch_Commits(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{}, &selectiveEnricher{},
		&staticReasoner{urgency: models.UrgencyLow}, fixedConfig(3))

	require.NoError(t, env.svc.RunBatch(context.Background()))

	counts, err := env.governance.CountByState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.StateArchived])

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Batches.WithLabelValues(observability.BatchOutcomeCommitted)))
	assert.False(t, env.svc.Degraded())
}

func TestRunBatch_FlagsUrgentSignals(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{}, &selectiveEnricher{},
		&staticReasoner{urgency: models.UrgencyCritical}, fixedConfig(2))

	require.NoError(t, env.svc.RunBatch(context.Background()))

	counts, err := env.governance.CountByState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StateFlagged])
}

func TestRunBatch_DropsFailedSignals(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{},
		&selectiveEnricher{failSubstring: "signal text 0"},
		&staticReasoner{urgency: models.UrgencyLow}, fixedConfig(3))

	require.NoError(t, env.svc.RunBatch(context.Background()))

	counts, err := env.governance.CountByState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.StateArchived])

	dropped := testutil.ToFloat64(env.metrics.SignalsDropped.WithLabelValues("enrichment_failed"))
	assert.Equal(t, 1.0, dropped)
}

func TestRunBatch_FailsWhenProductionFails(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{err: errors.New("oracle down")},
		&selectiveEnricher{}, &staticReasoner{urgency: models.UrgencyLow}, fixedConfig(2))

	require.Error(t, env.svc.RunBatch(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Batches.WithLabelValues(observability.BatchOutcomeFailed)))
}

func TestRunBatch_FailsWhenNothingSurvives(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{}, &selectiveEnricher{failAll: true},
		&staticReasoner{urgency: models.UrgencyLow}, fixedConfig(2))

	require.Error(t, env.svc.RunBatch(context.Background()))
}

func TestDegraded(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{err: errors.New("oracle down")},
		&selectiveEnricher{}, &staticReasoner{urgency: models.UrgencyLow}, fixedConfig(2))

	for i := 0; i < 3; i++ {
		assert.False(t, env.svc.Degraded())
		require.Error(t, env.svc.RunBatch(context.Background()))
	}
	assert.True(t, env.svc.Degraded())
	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.ConsecutiveBatchFails))
}

func TestDegraded_RecoversAfterSuccess(t *testing.T) {
	gen := &countingGenerator{err: errors.New("oracle down")}
	env := newPipelineEnv(t, gen, &selectiveEnricher{},
		&staticReasoner{urgency: models.UrgencyLow}, fixedConfig(2))

	for i := 0; i < 3; i++ {
		require.Error(t, env.svc.RunBatch(context.Background()))
	}
	require.True(t, env.svc.Degraded())

	gen.err = nil
	require.NoError(t, env.svc.RunBatch(context.Background()))
	assert.False(t, env.svc.Degraded())
}

func TestRunBatch_RandomizesSize(t *testing.T) {
	env := newPipelineEnv(t, &countingGenerator{}, &selectiveEnricher{},
		&staticReasoner{urgency: models.UrgencyLow}, Config{
			MinBatchSize:     3,
			MaxBatchSize:     8,
			MaxParallel:      4,
			FailureThreshold: 3,
		})

	require.NoError(t, env.svc.RunBatch(context.Background()))

	counts, err := env.governance.CountByState(context.Background())
	require.NoError(t, err)
	total := counts[models.StateArchived]
	assert.GreaterOrEqual(t, total, 3)
	assert.LessOrEqual(t, total, 8)
}
