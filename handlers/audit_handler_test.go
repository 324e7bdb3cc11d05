package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
)

func auditRouter(h *AuditHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/signals/{id}/audit", h.HandleSignalHistory)
	r.Get("/audit", h.HandleListAudit)
	return r
}

func TestHandleSignalHistory(t *testing.T) {
	env := newHandlerEnv(t)
	signal := env.ingest(t, 1, true)

	handler := NewAuditHandler(env.audit, zap.NewNop())
	router := auditRouter(handler)

	t.Run("returns transition history in order", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/signals/"+signal.ID.String()+"/audit", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var entries []*models.AuditEntry
		decodeData(t, w.Body, &entries)
		require.Len(t, entries, 2)
		assert.Equal(t, models.StatePending, entries[0].ToState)
		assert.Equal(t, models.StateFlagged, entries[1].ToState)
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/signals/nope/audit", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleListAudit(t *testing.T) {
	env := newHandlerEnv(t)
	flagged := env.ingest(t, 1, true)
	env.ingest(t, 2, false)

	handler := NewAuditHandler(env.audit, zap.NewNop())
	router := auditRouter(handler)

	t.Run("lists every entry", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var entries []*models.AuditEntry
		decodeData(t, w.Body, &entries)
		assert.Len(t, entries, 4)
	})

	t.Run("filters by signal id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit?signal_id="+flagged.ID.String(), nil))

		require.Equal(t, http.StatusOK, w.Code)
		var entries []*models.AuditEntry
		decodeData(t, w.Body, &entries)
		require.Len(t, entries, 2)
		for _, entry := range entries {
			assert.Equal(t, flagged.ID, entry.SignalID)
		}
	})

	t.Run("filters by target state", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit?to_state=flagged", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var entries []*models.AuditEntry
		decodeData(t, w.Body, &entries)
		require.Len(t, entries, 1)
		assert.Equal(t, models.StateFlagged, entries[0].ToState)
	})

	t.Run("respects limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit?limit=1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var entries []*models.AuditEntry
		decodeData(t, w.Body, &entries)
		assert.Len(t, entries, 1)
	})

	t.Run("rejects malformed timestamps", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit?start=yesterday", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown target state", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit?to_state=limbo", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
