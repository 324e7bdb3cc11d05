package reason

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/observability"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
)

type stubReasoner struct {
	reasoning *oracle.Reasoning
	err       error
}

func (r *stubReasoner) Reason(context.Context, *models.EnrichedSignal) (*oracle.Reasoning, error) {
	return r.reasoning, r.err
}

func newTestService(stub *stubReasoner) *ReasonService {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewReasonService(stub, metrics, zap.NewNop())
}

func enrichedSignal(ambiguous bool) *models.EnrichedSignal {
	return &models.EnrichedSignal{
		RawSignal:        *models.NewRawSignal(7, "cards declined all morning", models.SourcePublicForum, 0, time.Now()),
		SentimentScore:   -0.9,
		Category:         models.CategoryNegative,
		Confidence:       90,
		AmbiguityFlagged: ambiguous,
	}
}

func validReasoning(urgency models.Urgency) *oracle.Reasoning {
	return &oracle.Reasoning{
		Explanation: "- widespread outage\n- payment impact\n- public venue",
		ImpactAssessment: models.ImpactAssessment{
			ReputationalRisk:    "high",
			OperationalRisk:     "high",
			CustomerTrustImpact: "severe",
		},
		SuggestedAction: "page the payments on-call",
		Urgency:         urgency,
	}
}

func TestReason(t *testing.T) {
	svc := newTestService(&stubReasoner{reasoning: validReasoning(models.UrgencyMedium)})

	reasoned, err := svc.Reason(context.Background(), enrichedSignal(false))
	require.NoError(t, err)

	assert.Equal(t, models.UrgencyMedium, reasoned.Urgency)
	assert.Equal(t, "page the payments on-call", reasoned.SuggestedAction)
	assert.Equal(t, "high", reasoned.ImpactAssessment.ReputationalRisk)
	assert.False(t, reasoned.FlaggedForReview)
	assert.Empty(t, reasoned.FlagReasons)
}

func TestReason_FlagsHighUrgency(t *testing.T) {
	for _, urgency := range []models.Urgency{models.UrgencyCritical, models.UrgencyHigh} {
		t.Run(string(urgency), func(t *testing.T) {
			svc := newTestService(&stubReasoner{reasoning: validReasoning(urgency)})

			reasoned, err := svc.Reason(context.Background(), enrichedSignal(false))
			require.NoError(t, err)
			assert.True(t, reasoned.FlaggedForReview)
			assert.Equal(t, []models.FlagReason{models.FlagReasonUrgency}, reasoned.FlagReasons)
		})
	}
}

func TestReason_FlagsAmbiguity(t *testing.T) {
	svc := newTestService(&stubReasoner{reasoning: validReasoning(models.UrgencyLow)})

	reasoned, err := svc.Reason(context.Background(), enrichedSignal(true))
	require.NoError(t, err)
	assert.True(t, reasoned.FlaggedForReview)
	assert.Equal(t, []models.FlagReason{models.FlagReasonAmbiguity}, reasoned.FlagReasons)
}

func TestReason_AccumulatesFlagReasons(t *testing.T) {
	svc := newTestService(&stubReasoner{reasoning: validReasoning(models.UrgencyCritical)})

	reasoned, err := svc.Reason(context.Background(), enrichedSignal(true))
	require.NoError(t, err)
	assert.True(t, reasoned.FlaggedForReview)
	assert.Equal(t, []models.FlagReason{models.FlagReasonUrgency, models.FlagReasonAmbiguity}, reasoned.FlagReasons)
}

func TestReason_RejectsUnknownUrgency(t *testing.T) {
	svc := newTestService(&stubReasoner{reasoning: validReasoning(models.Urgency("Apocalyptic"))})

	_, err := svc.Reason(context.Background(), enrichedSignal(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInvalidUrgency)
}

func TestReason_OracleError(t *testing.T) {
	svc := newTestService(&stubReasoner{err: errors.New("model overloaded")})

	_, err := svc.Reason(context.Background(), enrichedSignal(false))
	require.Error(t, err)
	assert.True(t, services.IsExternalError(err))
}
