package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AyachiMishra/social-signal-intelligence-system/app"
	"github.com/AyachiMishra/social-signal-intelligence-system/config"
)

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()

	examplesPath := filepath.Join(dir, "examples.csv")
	csv := "text,category\n" +
		"\"{bank_name} app works great\",Positive\n" +
		"\"{bank_name} froze my account\",Negative\n"
	require.NoError(t, os.WriteFile(examplesPath, []byte(csv), 0o644))

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Store: config.StoreConfig{
			SignalsPath: filepath.Join(dir, "signals.json"),
			AuditPath:   filepath.Join(dir, "audit.json"),
		},
		Oracle: config.OracleConfig{APIKey: "test-key"},
		Pipeline: config.PipelineConfig{
			Interval:            time.Minute,
			MinBatchSize:        3,
			MaxBatchSize:        8,
			MaxParallel:         4,
			ConfidenceThreshold: 60,
			FailureThreshold:    3,
			ExamplesPath:        examplesPath,
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret"},
		Observability: config.ObservabilityConfig{
			LogLevel:       "debug",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}

	deps, err := app.NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close(context.Background()) })

	return SetupRoutes(deps)
}

func TestSetupRoutes(t *testing.T) {
	router := testRouter(t)

	t.Run("health endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("readiness endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("signal listing is public", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/signals", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("audit listing is public", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("stats endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("governance actions require auth", func(t *testing.T) {
		id := "11111111-1111-1111-1111-111111111111"
		for _, action := range []string{"approve", "decline", "archive"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/signals/"+id+"/"+action, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code, action)
		}
	})

	t.Run("unknown route returns 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
