package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// SearchOptions narrows a keyword search.
type SearchOptions struct {
	MaxResults    int64
	VideoDuration string // "", "short", "medium", "long"
	Order         string // "", "viewCount", "date", ...
}

// Client wraps the YouTube Data API v3 with API-key auth.
type Client struct {
	service     *youtube.Service
	transcripts *TranscriptFetcher
	log         logger.Logger
}

// NewClient builds a client from cfg. Extra options are appended after the
// API key and endpoint, so tests can point the service at a local server.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, log logger.Logger, opts ...option.ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.ConfigMissing, "youtube", "YOUTUBE_API_KEY is not set").
			WithHint("add YOUTUBE_API_KEY to your .env file")
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service:     service,
		transcripts: NewTranscriptFetcher(cfg.TranscriptURL, cfg.TranscriptLanguage, &http.Client{Timeout: 15 * time.Second}, log),
		log:         log,
	}, nil
}

// WithTranscripts replaces the caption fetcher.
func (c *Client) WithTranscripts(t *TranscriptFetcher) *Client {
	c.transcripts = t
	return c
}

// Search runs one search.list call. Failures are classified so the caller can
// tell quota exhaustion from configuration or transient errors.
func (c *Client) Search(ctx context.Context, keyword string, opts SearchOptions) ([]models.CandidateItem, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	call := c.service.Search.List([]string{"snippet"}).
		Q(keyword).
		Type("video").
		MaxResults(maxResults)
	if opts.VideoDuration != "" {
		call = call.VideoDuration(opts.VideoDuration)
	}
	if opts.Order != "" {
		call = call.Order(opts.Order)
	}

	c.log.Debug("YouTube search request", logger.String("keyword", keyword), logger.Int64("max_results", maxResults))

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, Classify("youtube.search", err)
	}

	items := make([]models.CandidateItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		candidate := models.CandidateItem{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelID:    item.Snippet.ChannelId,
			ChannelTitle: item.Snippet.ChannelTitle,
		}
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			candidate.PublishedAt = publishedAt
		}
		items = append(items, candidate)
	}

	c.log.Info("YouTube search complete", logger.String("keyword", keyword), logger.Int("results", len(items)))
	return items, nil
}

// StatsFor returns view statistics for one video. A nil result with a nil
// error means the provider returned no statistics row.
func (c *Client) StatsFor(ctx context.Context, videoID string) (*models.VideoStatistics, error) {
	resp, err := c.service.Videos.List([]string{"statistics"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, Classify("youtube.videos", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return nil, nil
	}

	stats := resp.Items[0].Statistics
	return &models.VideoStatistics{
		ViewCount: int64(stats.ViewCount),
		LikeCount: int64(stats.LikeCount),
	}, nil
}

// SubscribersFor returns channel statistics. Hidden subscriber counts read as zero.
func (c *Client) SubscribersFor(ctx context.Context, channelID string) (*models.ChannelStatistics, error) {
	resp, err := c.service.Channels.List([]string{"statistics"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, Classify("youtube.channels", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		return nil, nil
	}

	stats := resp.Items[0].Statistics
	out := &models.ChannelStatistics{ViewCount: int64(stats.ViewCount)}
	if !stats.HiddenSubscriberCount {
		out.SubscriberCount = int64(stats.SubscriberCount)
	}
	return out, nil
}

// TranscriptFor is best-effort: any failure yields ok=false.
func (c *Client) TranscriptFor(ctx context.Context, videoID string) (string, bool) {
	if c.transcripts == nil {
		return "", false
	}
	return c.transcripts.Fetch(ctx, videoID)
}

var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// Classify maps an API error to an apperr kind using the error reasons in
// the response body.
func Classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return apperr.Wrap(apperr.UpstreamTransient, op, err)
	}

	reason := ""
	for _, item := range gerr.Errors {
		if item.Reason != "" {
			reason = item.Reason
			break
		}
	}
	message := gerr.Message
	if message == "" {
		message = reason
	}

	switch {
	case quotaReasons[reason], gerr.Code == http.StatusTooManyRequests,
		strings.Contains(strings.ToLower(gerr.Message), "quota"):
		return &apperr.Error{
			Kind:    apperr.QuotaExceeded,
			Op:      op,
			Message: "YouTube API quota exceeded",
			Hint:    "the daily quota resets at midnight Pacific time; try again tomorrow",
			Err:     err,
		}
	case reason == "accessNotConfigured":
		return &apperr.Error{
			Kind:    apperr.UpstreamConfig,
			Op:      op,
			Message: "YouTube Data API v3 is not enabled for this project",
			Hint:    "enable YouTube Data API v3 in the Google Cloud Console",
			Err:     err,
		}
	case reason == "forbidden", reason == "keyInvalid", gerr.Code == http.StatusForbidden:
		return &apperr.Error{
			Kind:    apperr.UpstreamPermission,
			Op:      op,
			Message: fmt.Sprintf("YouTube API access denied (%s)", fallback(reason, "unknown reason")),
			Hint:    "check the API key and its restrictions in the Google Cloud Console",
			Err:     err,
		}
	default:
		return &apperr.Error{
			Kind:    apperr.UpstreamTransient,
			Op:      op,
			Message: fmt.Sprintf("YouTube API error (%d): %s", gerr.Code, fallback(message, "unknown error")),
			Err:     err,
		}
	}
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
