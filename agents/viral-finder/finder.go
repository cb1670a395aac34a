// Package viralfinder finds overperforming short videos for a keyword and
// across a fixed list of trend categories, serving cached results when the
// daily API quota runs out.
package viralfinder

import (
	"context"
	"sort"
	"strings"

	"shorts-studio/agents/viral-finder/youtube"
	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/ratelimit"
	"shorts-studio/shared/storage"
)

// Collector is the video provider. StatsFor and SubscribersFor return
// (nil, nil) when the provider has no statistics row for the id.
type Collector interface {
	Search(ctx context.Context, keyword string, opts youtube.SearchOptions) ([]models.CandidateItem, error)
	StatsFor(ctx context.Context, videoID string) (*models.VideoStatistics, error)
	SubscribersFor(ctx context.Context, channelID string) (*models.ChannelStatistics, error)
	TranscriptFor(ctx context.Context, videoID string) (string, bool)
}

// Options tunes batch sizes and filter presets.
type Options struct {
	SearchThresholds models.Thresholds
	TrendThresholds  models.Thresholds
	SearchBatchSize  int64
	TrendBatchSize   int64
	TrendSampleSize  int
	SeedKeywords     []string
	TopN             int
}

// OptionsFromConfig copies the finder settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SearchThresholds: cfg.Thresholds.Search,
		TrendThresholds:  cfg.Thresholds.Trends,
		SearchBatchSize:  cfg.YouTube.SearchBatchSize,
		TrendBatchSize:   cfg.YouTube.TrendBatchSize,
		TrendSampleSize:  cfg.YouTube.TrendSampleSize,
		SeedKeywords:     cfg.Trends.SeedKeywords,
		TopN:             cfg.Trends.TopN,
	}
}

type Finder struct {
	collector    Collector
	cache        *storage.KeywordCache
	itemPacer    ratelimit.Pacer
	keywordPacer ratelimit.Pacer
	opts         Options
	log          logger.Logger
}

func New(collector Collector, cache *storage.KeywordCache, opts Options, log logger.Logger) *Finder {
	if opts.SearchBatchSize <= 0 {
		opts.SearchBatchSize = 20
	}
	if opts.TrendBatchSize <= 0 {
		opts.TrendBatchSize = 10
	}
	if opts.TrendSampleSize <= 0 {
		opts.TrendSampleSize = 3
	}
	if opts.TopN <= 0 {
		opts.TopN = 20
	}
	if len(opts.SeedKeywords) == 0 {
		opts.SeedKeywords = config.DefaultSeedKeywords
	}
	return &Finder{
		collector:    collector,
		cache:        cache,
		itemPacer:    ratelimit.Unlimited(),
		keywordPacer: ratelimit.Unlimited(),
		opts:         opts,
		log:          log,
	}
}

// WithPacers sets the per-item and per-seed-keyword pacing.
func (f *Finder) WithPacers(item, keyword ratelimit.Pacer) *Finder {
	f.itemPacer = item
	f.keywordPacer = keyword
	return f
}

// SearchThresholds returns the single-keyword preset with the subscriber
// window optionally overridden.
func (f *Finder) SearchThresholds(minSubs, maxSubs *int64) models.Thresholds {
	th := f.opts.SearchThresholds
	if minSubs != nil {
		th.MinSubs = *minSubs
	}
	if maxSubs != nil {
		th.MaxSubs = *maxSubs
	}
	return th
}

// Search returns viral videos for keyword, sorted by descending score.
//
// A fresh cache entry is returned without touching the provider. Otherwise
// the provider is queried; a quota failure falls back to the stale entry, or
// to an empty result flagged QuotaExceeded when nothing is cached. Any other
// provider failure is returned as an error.
func (f *Finder) Search(ctx context.Context, keyword string, th models.Thresholds) (*models.SearchResult, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, apperr.New(apperr.InvalidInput, "finder.search", "keyword is required")
	}

	stale, cached := f.cache.Lookup(keyword)
	if cached && f.cache.Freshness(stale) == storage.Fresh {
		f.log.Info("Serving fresh cache entry",
			logger.String("keyword", keyword), logger.String("last_updated", stale.LastUpdated))
		return fromEntry(stale, true, false), nil
	}
	if cached {
		f.log.Info("Cache entry is stale, fetching live results",
			logger.String("keyword", keyword), logger.String("last_updated", stale.LastUpdated))
	}

	items, err := f.collector.Search(ctx, keyword, youtube.SearchOptions{MaxResults: f.opts.SearchBatchSize})
	if err != nil {
		return f.degrade(keyword, stale, err)
	}
	if len(items) == 0 {
		f.log.Info("Search returned no candidates", logger.String("keyword", keyword))
		return &models.SearchResult{Keyword: keyword, LastUpdated: f.cache.Today(), Videos: []models.ScoredVideo{}}, nil
	}

	videos := make([]models.ScoredVideo, 0, len(items))
	for _, item := range items {
		if err := f.itemPacer.Wait(ctx); err != nil {
			return nil, err
		}

		video, err := f.scoreItem(ctx, item)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if video == nil {
			// An absent row with a stale entry usually means the quota ran
			// out mid-batch. Other provider errors only cost this item.
			if apperr.Is(err, apperr.QuotaExceeded) || (err == nil && stale != nil) {
				f.log.Warn("Statistics unavailable, falling back",
					logger.String("keyword", keyword), logger.String("video_id", item.ID),
					logger.String("kind", statsFailureKind(err)))
				return f.degrade(keyword, stale, quotaSignal(err))
			}
			f.log.Warn("Skipping candidate without statistics",
				logger.String("keyword", keyword), logger.String("video_id", item.ID),
				logger.String("kind", statsFailureKind(err)), logger.Error(err))
			continue
		}

		if !Qualifies(*video, th) {
			continue
		}
		if transcript, ok := f.collector.TranscriptFor(ctx, item.ID); ok {
			video.Transcript = transcript
		}
		f.log.Info("Viral video found",
			logger.String("keyword", keyword), logger.String("video_id", video.VideoID),
			logger.Float64("viral_score", video.ViralScore))
		videos = append(videos, *video)
	}

	sortByScore(videos)

	entry, err := f.cache.Store(keyword, videos)
	if err != nil {
		f.log.Error("Failed to write keyword cache", logger.String("keyword", keyword), logger.Error(err))
		return &models.SearchResult{Keyword: keyword, LastUpdated: f.cache.Today(), Videos: videos}, nil
	}

	f.log.Info("Search complete", logger.String("keyword", keyword), logger.Int("videos", len(videos)))
	return fromEntry(entry, false, false), nil
}

// AttachAnalysis stores an analysis against a cached video.
func (f *Finder) AttachAnalysis(keyword, videoID string, analysis *models.ShortsAnalysis) error {
	return f.cache.Annotate(keyword, videoID, analysis)
}

// scoreItem fetches both statistics for item. A nil video means one of them
// was unavailable; err carries the provider error if there was one.
func (f *Finder) scoreItem(ctx context.Context, item models.CandidateItem) (*models.ScoredVideo, error) {
	stats, err := f.collector.StatsFor(ctx, item.ID)
	if err != nil || stats == nil {
		return nil, err
	}
	channel, err := f.collector.SubscribersFor(ctx, item.ChannelID)
	if err != nil || channel == nil {
		return nil, err
	}
	video := Scored(item, stats.ViewCount, channel.SubscriberCount)
	return &video, nil
}

// degrade applies the quota fallback. Non-quota errors propagate unchanged.
func (f *Finder) degrade(keyword string, stale *models.KeywordCacheEntry, err error) (*models.SearchResult, error) {
	if !apperr.Is(err, apperr.QuotaExceeded) {
		f.log.Error("Search failed", logger.String("keyword", keyword), logger.Error(err))
		return nil, err
	}

	if stale != nil {
		f.log.Warn("Quota exceeded, serving cached results",
			logger.String("keyword", keyword), logger.String("last_updated", stale.LastUpdated))
		return fromEntry(stale, true, true), nil
	}

	f.log.Warn("Quota exceeded and nothing cached", logger.String("keyword", keyword))
	return &models.SearchResult{
		Keyword:       keyword,
		LastUpdated:   f.cache.Today(),
		Videos:        []models.ScoredVideo{},
		QuotaExceeded: true,
	}, nil
}

var errStatsUnavailable = apperr.New(apperr.QuotaExceeded, "finder.stats", "statistics unavailable, assuming quota exhaustion")

func quotaSignal(err error) error {
	if err == nil {
		return errStatsUnavailable
	}
	return err
}

func statsFailureKind(err error) string {
	if err == nil {
		return "absent"
	}
	return apperr.KindOf(err).String()
}

func fromEntry(entry *models.KeywordCacheEntry, fromCache, quota bool) *models.SearchResult {
	videos := entry.Videos
	if videos == nil {
		videos = []models.ScoredVideo{}
	}
	return &models.SearchResult{
		Keyword:       entry.Keyword,
		LastUpdated:   entry.LastUpdated,
		Videos:        videos,
		FromCache:     fromCache,
		QuotaExceeded: quota,
	}
}

func sortByScore(videos []models.ScoredVideo) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ViralScore > videos[j].ViralScore
	})
}
