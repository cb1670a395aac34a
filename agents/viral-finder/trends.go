package viralfinder

import (
	"context"

	"shorts-studio/agents/viral-finder/youtube"
	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/storage"
)

// TrendKeyword is the keyword reported on trend digests.
const TrendKeyword = "trends"

// trendCacheKey keeps per-category samples apart from user searches, which
// are filtered with a different preset.
func trendCacheKey(seed string) string {
	return "trend:" + seed
}

type trendPools struct {
	filtered   []models.ScoredVideo
	unfiltered []models.ScoredVideo
	fromCache  bool
}

func (p *trendPools) add(video models.ScoredVideo, th models.Thresholds) {
	p.unfiltered = append(p.unfiltered, video)
	if Qualifies(video, th) {
		p.filtered = append(p.filtered, video)
	}
}

// Trends samples every seed keyword and returns the top videos. When the
// filter rejects everything the best unfiltered videos are returned instead.
// Once the quota runs out the remaining seeds are served from cache only.
func (f *Finder) Trends(ctx context.Context) (*models.SearchResult, error) {
	th := f.opts.TrendThresholds
	pools := &trendPools{}
	quotaHit := false

	for i, seed := range f.opts.SeedKeywords {
		if i > 0 && !quotaHit {
			if err := f.keywordPacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		entry, cached := f.cache.Lookup(trendCacheKey(seed))
		if cached && len(entry.Videos) > 0 && f.cache.Freshness(entry) == storage.Fresh {
			f.log.Debug("Using cached trend sample", logger.String("keyword", seed))
			f.addCached(pools, entry, th)
			continue
		}

		if quotaHit {
			if cached {
				f.addCached(pools, entry, th)
			}
			continue
		}

		sample, err := f.sampleSeed(ctx, seed)
		for _, v := range sample {
			pools.add(v, th)
		}
		switch {
		case err == nil:
		case apperr.Is(err, apperr.QuotaExceeded):
			f.log.Warn("Quota exceeded during trend scan, remaining keywords are cache-only",
				logger.String("keyword", seed), logger.Error(err))
			quotaHit = true
			if cached && len(sample) == 0 {
				f.addCached(pools, entry, th)
			}
		case apperr.Is(err, apperr.UpstreamTransient):
			f.log.Warn("Skipping trend keyword", logger.String("keyword", seed), logger.Error(err))
		default:
			return nil, err
		}
	}

	sortByScore(pools.filtered)
	sortByScore(pools.unfiltered)

	result := &models.SearchResult{
		Keyword:       TrendKeyword,
		LastUpdated:   f.cache.Today(),
		FromCache:     pools.fromCache,
		QuotaExceeded: quotaHit,
	}
	switch {
	case len(pools.filtered) > 0:
		result.Videos = top(pools.filtered, f.opts.TopN)
	case len(pools.unfiltered) > 0:
		result.Videos = top(pools.unfiltered, f.opts.TopN)
		result.Unfiltered = true
		f.log.Info("No trend video passed the filter, returning best unfiltered",
			logger.Int("candidates", len(pools.unfiltered)))
	default:
		result.Videos = []models.ScoredVideo{}
		f.log.Warn("Trend scan found no videos")
	}

	f.log.Info("Trend scan complete",
		logger.Int("filtered", len(pools.filtered)),
		logger.Int("unfiltered", len(pools.unfiltered)),
		logger.Bool("quota_exceeded", quotaHit))
	return result, nil
}

// sampleSeed runs one live seed keyword: a batch of short videos ordered by
// views, of which only the first few are scored. A complete sample is cached
// unfiltered so a later hit can re-apply the filter. On a quota failure the
// items scored so far are returned with the error.
func (f *Finder) sampleSeed(ctx context.Context, seed string) ([]models.ScoredVideo, error) {
	items, err := f.collector.Search(ctx, seed, youtube.SearchOptions{
		MaxResults:    f.opts.TrendBatchSize,
		VideoDuration: "short",
		Order:         "viewCount",
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		f.log.Info("No candidates for trend keyword", logger.String("keyword", seed))
		return nil, nil
	}
	if len(items) > f.opts.TrendSampleSize {
		items = items[:f.opts.TrendSampleSize]
	}

	sample := make([]models.ScoredVideo, 0, len(items))
	for _, item := range items {
		if err := f.itemPacer.Wait(ctx); err != nil {
			return nil, err
		}

		video, err := f.scoreItem(ctx, item)
		if video == nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if apperr.Is(err, apperr.QuotaExceeded) {
				return sample, err
			}
			f.log.Warn("Skipping trend candidate without statistics",
				logger.String("keyword", seed), logger.String("video_id", item.ID), logger.Error(err))
			continue
		}

		if transcript, ok := f.collector.TranscriptFor(ctx, item.ID); ok {
			video.Transcript = transcript
		}
		sample = append(sample, *video)
	}

	sortByScore(sample)
	if _, err := f.cache.Store(trendCacheKey(seed), sample); err != nil {
		f.log.Error("Failed to cache trend sample", logger.String("keyword", seed), logger.Error(err))
	}
	return sample, nil
}

func (f *Finder) addCached(pools *trendPools, entry *models.KeywordCacheEntry, th models.Thresholds) {
	videos := top(entry.Videos, f.opts.TrendSampleSize)
	if len(videos) == 0 {
		return
	}
	pools.fromCache = true
	for _, v := range videos {
		pools.add(v, th)
	}
}

func top(videos []models.ScoredVideo, n int) []models.ScoredVideo {
	if len(videos) > n {
		videos = videos[:n]
	}
	out := make([]models.ScoredVideo, len(videos))
	copy(out, videos)
	return out
}
