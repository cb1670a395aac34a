package monitoring

import (
	"shorts-studio/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "shorts_studio"

// Outcome labels for video lookups.
const (
	OutcomeLive          = "live"
	OutcomeCache         = "cache"
	OutcomeQuotaFallback = "quota_fallback"
	OutcomeQuotaEmpty    = "quota_empty"
	OutcomeError         = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	Lookups       *prometheus.CounterVec
	LookupVideos  *prometheus.HistogramVec
	Generations   *prometheus.CounterVec
	ScheduledRuns *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	HTTPRequests  *prometheus.CounterVec
}

// NewMetrics registers all collectors on a private registry so tests can
// build as many as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lookups_total",
			Help:      "Keyword searches and trend scans by source of the result",
		}, []string{"kind", "outcome"}),
		LookupVideos: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "lookup_videos",
			Help:      "Number of videos returned per lookup",
			Buckets:   []float64{0, 1, 3, 5, 10, 20},
		}, []string{"kind"}),
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generations_total",
			Help:      "Text and video generation calls by result",
		}, []string{"kind", "result"}),
		ScheduledRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scheduled_runs_total",
			Help:      "Scheduled trend digest runs by result",
		}, []string{"result"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "scheduled_run_duration_seconds",
			Help:      "Duration of scheduled trend digest runs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
}

// ObserveLookup records one search or trend result.
func (m *Metrics) ObserveLookup(kind, outcome string, videos int) {
	m.Lookups.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeError {
		m.LookupVideos.WithLabelValues(kind).Observe(float64(videos))
	}
}

// LookupOutcome derives the outcome label from the result flags.
func LookupOutcome(result *models.SearchResult) string {
	switch {
	case result == nil:
		return OutcomeError
	case result.QuotaExceeded && !result.FromCache && len(result.Videos) == 0:
		return OutcomeQuotaEmpty
	case result.QuotaExceeded:
		return OutcomeQuotaFallback
	case result.FromCache:
		return OutcomeCache
	default:
		return OutcomeLive
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
