package storage

import (
	"fmt"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
)

// FreshnessWindow is how long a keyword entry is served without a live fetch.
const FreshnessWindow = 7 * 24 * time.Hour

const dateLayout = "2006-01-02"

type Freshness int

const (
	Stale Freshness = iota
	Fresh
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

type CacheData map[string]models.KeywordCacheEntry

// KeywordCache indexes scored videos by the exact search keyword.
// Keywords are not normalised: "Recipe" and "recipe " are separate entries.
type KeywordCache struct {
	doc *Document[CacheData]
	now func() time.Time
	log logger.Logger
}

func NewKeywordCache(dataDir string, log logger.Logger) *KeywordCache {
	return &KeywordCache{
		doc: NewDocument(dataDir, "cache.json", func() CacheData { return CacheData{} }, log),
		now: time.Now,
		log: log,
	}
}

// WithClock overrides the time source. Used by tests.
func (kc *KeywordCache) WithClock(now func() time.Time) *KeywordCache {
	kc.now = now
	return kc
}

// Lookup returns the entry stored under keyword, if any.
func (kc *KeywordCache) Lookup(keyword string) (*models.KeywordCacheEntry, bool) {
	entry, ok := kc.doc.Read()[keyword]
	if !ok {
		return nil, false
	}
	return &entry, true
}

// Store replaces the entry for keyword wholesale and stamps it with today's date.
func (kc *KeywordCache) Store(keyword string, videos []models.ScoredVideo) (*models.KeywordCacheEntry, error) {
	if videos == nil {
		videos = []models.ScoredVideo{}
	}
	entry := models.KeywordCacheEntry{
		Keyword:     keyword,
		LastUpdated: kc.now().UTC().Format(dateLayout),
		Videos:      videos,
	}

	err := kc.doc.Update(func(data CacheData) (CacheData, error) {
		if data == nil {
			data = CacheData{}
		}
		data[keyword] = entry
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	kc.log.Debug("Keyword cache updated",
		logger.String("keyword", keyword), logger.Int("videos", len(videos)))
	return &entry, nil
}

// Annotate attaches an analysis to one cached video without touching lastUpdated.
func (kc *KeywordCache) Annotate(keyword, videoID string, analysis *models.ShortsAnalysis) error {
	return kc.doc.Update(func(data CacheData) (CacheData, error) {
		entry, ok := data[keyword]
		if !ok {
			return nil, apperr.New(apperr.InvalidInput, "cache.annotate", fmt.Sprintf("no cached entry for keyword %q", keyword))
		}
		for i := range entry.Videos {
			if entry.Videos[i].VideoID == videoID {
				entry.Videos[i].Analysis = analysis
				data[keyword] = entry
				return data, nil
			}
		}
		return nil, apperr.New(apperr.InvalidInput, "cache.annotate", fmt.Sprintf("video %s is not cached under %q", videoID, keyword))
	})
}

// Freshness classifies entry relative to now. An unparseable date is Stale.
func (kc *KeywordCache) Freshness(entry *models.KeywordCacheEntry) Freshness {
	return FreshnessAt(entry, kc.now())
}

// FreshnessAt reports Fresh when less than FreshnessWindow has elapsed since
// the start (UTC midnight) of entry.LastUpdated.
func FreshnessAt(entry *models.KeywordCacheEntry, now time.Time) Freshness {
	updated, err := time.Parse(dateLayout, entry.LastUpdated)
	if err != nil {
		return Stale
	}
	if now.Sub(updated) < FreshnessWindow {
		return Fresh
	}
	return Stale
}

// Today returns the current date in the cache's date format.
func (kc *KeywordCache) Today() string {
	return kc.now().UTC().Format(dateLayout)
}
