package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AyachiMishra/social-signal-intelligence-system/middleware"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/governance"
	"github.com/AyachiMishra/social-signal-intelligence-system/utils"
	"go.uber.org/zap"
)

// DecisionRequest carries the reviewer rationale for a governance action
type DecisionRequest struct {
	Rationale string `json:"rationale" validate:"max=2000"`
}

// SignalHandler handles signal listing and governance HTTP requests
type SignalHandler struct {
	governance *governance.GovernanceService
	logger     *zap.Logger
}

// NewSignalHandler creates a new SignalHandler
func NewSignalHandler(governanceSvc *governance.GovernanceService, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		governance: governanceSvc,
		logger:     logger,
	}
}

// HandleListSignals handles GET /api/v1/signals
func (h *SignalHandler) HandleListSignals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	filter, err := parseSignalFilter(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	signals, err := h.governance.List(ctx, filter)
	if err != nil {
		h.logger.Error("failed to list signals",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("listed signals",
		zap.String("request_id", requestID),
		zap.Int("count", len(signals)))

	_ = utils.WriteOK(w, signals)
}

// HandleGetSignal handles GET /api/v1/signals/{id}
func (h *SignalHandler) HandleGetSignal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	signalID, err := parseSignalID(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid signal ID format", nil)
		return
	}

	signal, err := h.governance.Get(ctx, signalID)
	if err != nil {
		h.logger.Debug("signal lookup failed",
			zap.String("request_id", requestID),
			zap.String("signal_id", signalID.String()),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, signal)
}

// HandleApprove handles POST /api/v1/signals/{id}/approve
func (h *SignalHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.StateApproved)
}

// HandleDecline handles POST /api/v1/signals/{id}/decline
func (h *SignalHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.StateDeclined)
}

// HandleArchive handles POST /api/v1/signals/{id}/archive
func (h *SignalHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	signalID, err := parseSignalID(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid signal ID format", nil)
		return
	}

	actor := middleware.GetActorFromContext(ctx)
	req, err := h.parseDecisionRequest(w, r, requestID)
	if err != nil {
		return
	}

	signal, err := h.governance.Archive(ctx, signalID, actor, req.Rationale)
	if err != nil {
		h.logger.Warn("archive failed",
			zap.String("request_id", requestID),
			zap.String("signal_id", signalID.String()),
			zap.String("actor", actor),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("signal archived",
		zap.String("request_id", requestID),
		zap.String("signal_id", signalID.String()),
		zap.String("actor", actor))

	_ = utils.WriteOK(w, signal)
}

func (h *SignalHandler) decide(w http.ResponseWriter, r *http.Request, target models.GovernanceState) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	signalID, err := parseSignalID(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid signal ID format", nil)
		return
	}

	actor := middleware.GetActorFromContext(ctx)
	req, err := h.parseDecisionRequest(w, r, requestID)
	if err != nil {
		return
	}

	signal, err := h.governance.Decide(ctx, signalID, target, actor, req.Rationale)
	if err != nil {
		h.logger.Warn("governance decision failed",
			zap.String("request_id", requestID),
			zap.String("signal_id", signalID.String()),
			zap.String("target", string(target)),
			zap.String("actor", actor),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("governance decision recorded",
		zap.String("request_id", requestID),
		zap.String("signal_id", signalID.String()),
		zap.String("target", string(target)),
		zap.String("actor", actor))

	_ = utils.WriteOK(w, signal)
}

// parseDecisionRequest decodes and validates the request body.
// An empty body is treated as a decision without rationale.
func (h *SignalHandler) parseDecisionRequest(w http.ResponseWriter, r *http.Request, requestID string) (*DecisionRequest, error) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return nil, err
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return nil, err
	}

	return &req, nil
}

func parseSignalID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func parseSignalFilter(r *http.Request) (repositories.SignalFilter, error) {
	var filter repositories.SignalFilter
	query := r.URL.Query()

	if state := query.Get("state"); state != "" {
		parsed := models.GovernanceState(state)
		if !parsed.Valid() {
			return filter, errInvalidQueryParam("state", state)
		}
		filter.State = parsed
	}

	if category := query.Get("category"); category != "" {
		parsed := models.Category(category)
		if !parsed.Valid() {
			return filter, errInvalidQueryParam("category", category)
		}
		filter.Category = parsed
	}

	if flagged := query.Get("flagged"); flagged != "" {
		parsed, err := strconv.ParseBool(flagged)
		if err != nil {
			return filter, errInvalidQueryParam("flagged", flagged)
		}
		filter.Flagged = &parsed
	}

	limit, offset, err := parsePagination(query.Get("limit"), query.Get("offset"))
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, nil
}

func errInvalidQueryParam(name, value string) error {
	return fmt.Errorf("invalid %s query parameter: %q", name, value)
}

func parsePagination(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	if limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			return 0, 0, errInvalidQueryParam("limit", limitStr)
		}
		limit = parsed
	}
	if offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			return 0, 0, errInvalidQueryParam("offset", offsetStr)
		}
		offset = parsed
	}
	return limit, offset, nil
}
