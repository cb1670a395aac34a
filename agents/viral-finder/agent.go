package viralfinder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/monitoring"
	"shorts-studio/shared/scheduler"
)

type TrendSource interface {
	Trends(ctx context.Context) (*models.SearchResult, error)
}

type DigestMailer interface {
	SendDigest(report *models.DigestReport) error
}

// TrendMetrics summarises one digest run.
type TrendMetrics struct {
	Videos        int
	Keywords      int
	FromCache     bool
	QuotaExceeded bool
	Unfiltered    bool
	Emailed       bool
}

func (m TrendMetrics) GetSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "found %d trending videos across %d keywords", m.Videos, m.Keywords)

	var notes []string
	if m.Unfiltered {
		notes = append(notes, "unfiltered")
	}
	if m.FromCache {
		notes = append(notes, "from cache")
	}
	if m.QuotaExceeded {
		notes = append(notes, "quota exceeded")
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
	}
	if m.Emailed {
		b.WriteString(", digest emailed")
	}
	return b.String()
}

// TrendAgent implements scheduler.Agent: it runs the trend scan and mails
// the result when a mailer is configured.
type TrendAgent struct {
	source   TrendSource
	mailer   DigestMailer
	keywords int
	metrics  *monitoring.Metrics
	log      logger.Logger
	now      func() time.Time
}

// NewTrendAgent builds the digest agent. mailer and metrics may be nil.
func NewTrendAgent(source TrendSource, mailer DigestMailer, keywords int, metrics *monitoring.Metrics, log logger.Logger) *TrendAgent {
	return &TrendAgent{
		source:   source,
		mailer:   mailer,
		keywords: keywords,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

func (a *TrendAgent) Name() string {
	return "Trend Digest"
}

func (a *TrendAgent) Initialize() error {
	if a.source == nil {
		return apperr.New(apperr.ConfigMissing, "trend_agent", "no trend source configured")
	}
	a.log.Info("Agent initialized",
		logger.String("agent", a.Name()),
		logger.Int("keywords", a.keywords),
		logger.Bool("email_enabled", a.mailer != nil))
	return nil
}

func (a *TrendAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	start := time.Now()

	result, err := a.source.Trends(ctx)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ObserveLookup("trends", monitoring.OutcomeError, 0)
		}
		return fmt.Errorf("failed to collect trends: %w", err)
	}
	if a.metrics != nil {
		a.metrics.ObserveLookup("trends", monitoring.LookupOutcome(result), len(result.Videos))
	}

	metrics := TrendMetrics{
		Videos:        len(result.Videos),
		Keywords:      a.keywords,
		FromCache:     result.FromCache,
		QuotaExceeded: result.QuotaExceeded,
		Unfiltered:    result.Unfiltered,
	}

	if a.mailer != nil && len(result.Videos) > 0 {
		report := &models.DigestReport{
			Date:          a.now(),
			Videos:        result.Videos,
			Keywords:      a.keywords,
			QuotaExceeded: result.QuotaExceeded,
			Unfiltered:    result.Unfiltered,
		}
		if err := a.mailer.SendDigest(report); err != nil {
			events.OnPartialFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(start))
		} else {
			metrics.Emailed = true
		}
	}

	events.OnSuccess(metrics, time.Since(start))
	return nil
}
