package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/privacy"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
)

func TestHandleStats(t *testing.T) {
	env := newHandlerEnv(t)
	env.ingest(t, 1, true)
	env.ingest(t, 2, false)
	env.ingest(t, 3, false)

	shield := privacy.NewShield(nil, nil, zap.NewNop())
	_, _, err := shield.Scrub("reach me at sam@example.com")
	require.NoError(t, err)

	handler := NewStatsHandler(env.governance, shield, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got StatsResponse
	decodeData(t, w.Body, &got)

	assert.Equal(t, 1, got.States[models.StateFlagged])
	assert.Equal(t, 2, got.States[models.StateArchived])
	assert.Equal(t, uint64(1), got.PIIRedactions["email"])
	assert.NotEmpty(t, got.Timestamp)
}
