package models

import "time"

// CandidateItem is a search hit before any statistics are known.
type CandidateItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channelId"`
	ChannelTitle string    `json:"channelTitle,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
}

type VideoStatistics struct {
	ViewCount int64 `json:"viewCount"`
	LikeCount int64 `json:"likeCount,omitempty"`
}

type ChannelStatistics struct {
	SubscriberCount int64 `json:"subscriberCount"`
	ViewCount       int64 `json:"viewCount"`
}

type VideoStats struct {
	Views int64 `json:"views"`
	Subs  int64 `json:"subs"`
}

// ScoredVideo is the durable unit stored in the keyword cache.
// ViralScore is always derived from Stats.
type ScoredVideo struct {
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Stats      VideoStats      `json:"stats"`
	ViralScore float64         `json:"viralScore"`
	Transcript string          `json:"transcript,omitempty"`
	Analysis   *ShortsAnalysis `json:"analysis,omitempty"`
}

type ShortsAnalysis struct {
	Hook              string   `json:"hook"`
	Format            string   `json:"format"`
	RecommendedTitles []string `json:"recommendedTitles"`
	Script            string   `json:"script"`
	Guide             string   `json:"guide"`
	AIVideoGuide      string   `json:"aiVideoGuide"`
}

type KeywordCacheEntry struct {
	Keyword     string        `json:"keyword"`
	LastUpdated string        `json:"lastUpdated"` // YYYY-MM-DD, UTC
	Videos      []ScoredVideo `json:"videos"`
}

// SearchResult is returned by both the keyword search and the trend digest.
type SearchResult struct {
	Keyword       string        `json:"keyword"`
	LastUpdated   string        `json:"lastUpdated"`
	Videos        []ScoredVideo `json:"videos"`
	FromCache     bool          `json:"fromCache,omitempty"`
	QuotaExceeded bool          `json:"quotaExceeded,omitempty"`
	Unfiltered    bool          `json:"unfiltered,omitempty"`
}

// Thresholds parameterise the virality filter.
type Thresholds struct {
	MinScore       float64 `yaml:"min_score" json:"minScore"`
	VeryViralScore float64 `yaml:"very_viral_score" json:"veryViralScore"`
	MinSubs        int64   `yaml:"min_subs" json:"minSubs"`
	MaxSubs        int64   `yaml:"max_subs" json:"maxSubs"`
}

type AnalyzeRequest struct {
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	Transcript string `json:"transcript,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
}

type GeneratedVideo struct {
	URL         string `json:"url"`
	SceneNumber int    `json:"sceneNumber,omitempty"`
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	Duration    int    `json:"duration"`
}

// SceneRecord occupies one of the fixed production slots.
type SceneRecord struct {
	SceneNumber   int    `json:"sceneNumber"`
	VideoURL      string `json:"videoUrl"`
	Prompt        string `json:"prompt"`
	KoreanText    string `json:"koreanText,omitempty"`
	EnglishPrompt string `json:"englishPrompt,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

type GalleryItem struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Prompt        string `json:"prompt"`
	KoreanText    string `json:"koreanText,omitempty"`
	EnglishPrompt string `json:"englishPrompt,omitempty"`
	Date          string `json:"date"`
	SceneNumber   int    `json:"sceneNumber,omitempty"`
}

type DigestReport struct {
	Date          time.Time     `json:"date"`
	Videos        []ScoredVideo `json:"videos"`
	Keywords      int           `json:"keywords"`
	QuotaExceeded bool          `json:"quota_exceeded"`
	Unfiltered    bool          `json:"unfiltered"`
}
