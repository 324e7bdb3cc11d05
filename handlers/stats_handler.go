package handlers

import (
	"net/http"
	"time"

	"github.com/AyachiMishra/social-signal-intelligence-system/internal/privacy"
	"github.com/AyachiMishra/social-signal-intelligence-system/middleware"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/governance"
	"github.com/AyachiMishra/social-signal-intelligence-system/utils"
	"go.uber.org/zap"
)

// StatsResponse summarizes governance workload and privacy shield activity
type StatsResponse struct {
	States        map[models.GovernanceState]int `json:"states"`
	PIIRedactions map[string]uint64              `json:"pii_redactions"`
	Timestamp     string                         `json:"timestamp"`
}

// StatsHandler handles operational statistics HTTP requests
type StatsHandler struct {
	governance *governance.GovernanceService
	shield     *privacy.Shield
	logger     *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(governanceSvc *governance.GovernanceService, shield *privacy.Shield, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		governance: governanceSvc,
		shield:     shield,
		logger:     logger,
	}
}

// HandleStats handles GET /api/v1/stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	counts, err := h.governance.CountByState(ctx)
	if err != nil {
		h.logger.Error("failed to count signals by state",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	response := StatsResponse{
		States:        counts,
		PIIRedactions: h.shield.Stats(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}
