package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMonitorLifecycle(t *testing.T) {
	m := NewMonitor(logger.NewNop())
	m.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	assert.True(t, m.IsHealthy(), "no runs yet")
	assert.Equal(t, "No runs yet", m.GetStatusSummary())

	m.RecordSuccess("12 videos", time.Second)
	assert.True(t, m.IsHealthy())
	assert.Equal(t, "Last run: Mar 1 09:00", m.GetStatusSummary())

	m.RecordPartialFailure(errors.New("email failed"), time.Second)
	assert.True(t, m.IsHealthy(), "partial failures keep the monitor healthy")

	m.RecordCriticalFailure(errors.New("api disabled"), time.Second)
	assert.False(t, m.IsHealthy())
	status := m.Status()
	assert.False(t, status.Healthy)
	assert.Equal(t, "api disabled", status.Error)
	assert.Equal(t, "12 videos", status.Summary)
}

func TestHealthHandlers(t *testing.T) {
	m := NewMonitor(logger.NewNop())
	router := gin.New()
	router.GET("/health", HealthHandler(m))
	router.GET("/status", StatusHandler(m))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "OK - "))

	m.RecordCriticalFailure(errors.New("boom"), time.Second)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy":false`)
	assert.Contains(t, w.Body.String(), `"error":"boom"`)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveLookup("search", OutcomeLive, 4)
	m.ObserveLookup("search", OutcomeLive, 2)
	m.ObserveLookup("search", OutcomeQuotaFallback, 1)
	m.ObserveLookup("trends", OutcomeError, 0)

	router := gin.New()
	router.GET("/metrics", m.Handler())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `shorts_studio_lookups_total{kind="search",outcome="live"} 2`)
	assert.Contains(t, body, `shorts_studio_lookups_total{kind="search",outcome="quota_fallback"} 1`)
	assert.Contains(t, body, `shorts_studio_lookups_total{kind="trends",outcome="error"} 1`)
	assert.Contains(t, body, `shorts_studio_lookup_videos_count{kind="search"} 3`)
	assert.NotContains(t, body, `shorts_studio_lookup_videos_count{kind="trends"}`)
}

func TestLookupOutcome(t *testing.T) {
	tests := []struct {
		name   string
		result *models.SearchResult
		want   string
	}{
		{"nil", nil, OutcomeError},
		{"live", &models.SearchResult{Videos: []models.ScoredVideo{{VideoID: "a"}}}, OutcomeLive},
		{"fresh cache", &models.SearchResult{FromCache: true}, OutcomeCache},
		{"stale fallback", &models.SearchResult{FromCache: true, QuotaExceeded: true}, OutcomeQuotaFallback},
		{"partial live sample", &models.SearchResult{QuotaExceeded: true, Videos: []models.ScoredVideo{{VideoID: "a"}}}, OutcomeQuotaFallback},
		{"nothing to fall back on", &models.SearchResult{QuotaExceeded: true}, OutcomeQuotaEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupOutcome(tt.result))
		})
	}
}
