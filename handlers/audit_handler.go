package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AyachiMishra/social-signal-intelligence-system/middleware"
	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/repositories"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/audit"
	"github.com/AyachiMishra/social-signal-intelligence-system/utils"
	"go.uber.org/zap"
)

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	audit  *audit.AuditService
	logger *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditSvc *audit.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  auditSvc,
		logger: logger,
	}
}

// HandleSignalHistory handles GET /api/v1/signals/{id}/audit
func (h *AuditHandler) HandleSignalHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	signalID, err := parseSignalID(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid signal ID format", nil)
		return
	}

	entries, err := h.audit.History(ctx, signalID)
	if err != nil {
		h.logger.Error("failed to fetch audit history",
			zap.String("request_id", requestID),
			zap.String("signal_id", signalID.String()),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, entries)
}

// HandleListAudit handles GET /api/v1/audit
func (h *AuditHandler) HandleListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	filter, err := parseAuditFilter(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	entries, err := h.audit.Query(ctx, filter)
	if err != nil {
		h.logger.Error("failed to query audit log",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("queried audit log",
		zap.String("request_id", requestID),
		zap.Int("count", len(entries)))

	_ = utils.WriteOK(w, entries)
}

func parseAuditFilter(r *http.Request) (repositories.AuditFilter, error) {
	var filter repositories.AuditFilter
	query := r.URL.Query()

	if signalID := query.Get("signal_id"); signalID != "" {
		parsed, err := uuid.Parse(signalID)
		if err != nil {
			return filter, errInvalidQueryParam("signal_id", signalID)
		}
		filter.SignalID = parsed
	}

	filter.Actor = query.Get("actor")

	if toState := query.Get("to_state"); toState != "" {
		parsed := models.GovernanceState(toState)
		if !parsed.Valid() {
			return filter, errInvalidQueryParam("to_state", toState)
		}
		filter.ToState = parsed
	}

	if start := query.Get("start"); start != "" {
		parsed, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return filter, errInvalidQueryParam("start", start)
		}
		filter.Start = parsed
	}

	if end := query.Get("end"); end != "" {
		parsed, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return filter, errInvalidQueryParam("end", end)
		}
		filter.End = parsed
	}

	limit, offset, err := parsePagination(query.Get("limit"), query.Get("offset"))
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, nil
}
