package viralfinder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/storage"
)

func newTrendFinder(t *testing.T, collector Collector, seeds ...string) (*Finder, *storage.KeywordCache, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := storage.NewKeywordCache(t.TempDir(), logger.NewNop()).WithClock(clk.Now)
	opts := Options{
		SearchThresholds: config.SearchThresholds(),
		TrendThresholds:  config.TrendThresholds(),
		SeedKeywords:     seeds,
	}
	return New(collector, cache, opts, logger.NewNop()), cache, clk
}

func videoIDs(videos []models.ScoredVideo) []string {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID
	}
	return ids
}

func TestTrendsSamplesFirstThree(t *testing.T) {
	collector := newFakeCollector()
	for i := 1; i <= 5; i++ {
		collector.add("cooking", fmt.Sprintf("c%d", i), int64(i)*1000, 100)
	}
	finder, cache, _ := newTrendFinder(t, collector, "cooking")

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}

	if collector.lastOpts.MaxResults != 10 || collector.lastOpts.VideoDuration != "short" || collector.lastOpts.Order != "viewCount" {
		t.Errorf("search options = %+v", collector.lastOpts)
	}
	if collector.statsCalls != 3 {
		t.Errorf("stats calls = %d, want 3", collector.statsCalls)
	}
	if got := fmt.Sprint(videoIDs(result.Videos)); got != "[c3 c2 c1]" {
		t.Errorf("videos = %s, want [c3 c2 c1]", got)
	}
	if result.Keyword != TrendKeyword || result.Unfiltered || result.QuotaExceeded || result.FromCache {
		t.Errorf("result flags = %+v", result)
	}

	entry, ok := cache.Lookup("trend:cooking")
	if !ok || len(entry.Videos) != 3 {
		t.Errorf("trend sample not cached: %+v", entry)
	}
	if _, ok := cache.Lookup("cooking"); ok {
		t.Error("trend scan must not overwrite the search cache")
	}
}

func TestTrendsFallsBackToUnfiltered(t *testing.T) {
	collector := newFakeCollector()
	// Every video fails the filter: big channels with modest ratios.
	collector.add("a", "a1", 150000, 50000) // 3
	collector.add("a", "a2", 500000, 50000) // 10
	collector.add("b", "b1", 50000, 50000)  // 1
	collector.add("b", "b2", 0, 20)         // 0
	collector.add("c", "c1", 900000, 60000) // 15
	finder, _, _ := newTrendFinder(t, collector, "a", "b", "c")

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !result.Unfiltered {
		t.Error("expected unfiltered fallback")
	}
	if got := fmt.Sprint(videoIDs(result.Videos)); got != "[c1 a2 a1 b1 b2]" {
		t.Errorf("videos = %s, want unfiltered pool by descending score", got)
	}
}

func TestTrendsTopN(t *testing.T) {
	collector := newFakeCollector()
	var seeds []string
	for k := 0; k < 10; k++ {
		seed := fmt.Sprintf("seed%d", k)
		seeds = append(seeds, seed)
		for i := 0; i < 3; i++ {
			collector.add(seed, fmt.Sprintf("%s-%d", seed, i), int64(100+k*10+i)*50, 50)
		}
	}
	finder, _, _ := newTrendFinder(t, collector, seeds...)

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Videos) != 20 {
		t.Fatalf("videos = %d, want 20", len(result.Videos))
	}
	for i := 1; i < len(result.Videos); i++ {
		if result.Videos[i-1].ViralScore < result.Videos[i].ViralScore {
			t.Fatalf("not sorted at %d: %v < %v", i, result.Videos[i-1].ViralScore, result.Videos[i].ViralScore)
		}
	}
	if result.Videos[0].VideoID != "seed9-2" {
		t.Errorf("top video = %s", result.Videos[0].VideoID)
	}
}

func TestTrendsFreshCacheSkipsUpstream(t *testing.T) {
	collector := newFakeCollector()
	collector.add("pets", "live", 90000, 100)
	finder, cache, _ := newTrendFinder(t, collector, "pets")

	cached := []models.ScoredVideo{
		{VideoID: "p1", Stats: models.VideoStats{Views: 5000, Subs: 100}, ViralScore: 50},
		{VideoID: "p2", Stats: models.VideoStats{Views: 50000, Subs: 50000}, ViralScore: 1},
		{VideoID: "p3", Stats: models.VideoStats{Views: 300, Subs: 100}, ViralScore: 3},
		{VideoID: "p4", Stats: models.VideoStats{Views: 9000, Subs: 100}, ViralScore: 90},
	}
	if _, err := cache.Store("trend:pets", cached); err != nil {
		t.Fatal(err)
	}

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if collector.upstreamCalls() != 0 {
		t.Errorf("upstream calls = %d, want 0", collector.upstreamCalls())
	}
	// Only the first three cached videos count; p2 fails the filter.
	if got := fmt.Sprint(videoIDs(result.Videos)); got != "[p1 p3]" {
		t.Errorf("videos = %s, want [p1 p3]", got)
	}
	if !result.FromCache {
		t.Error("expected fromCache")
	}
}

func TestTrendsQuotaSwitchesToCacheOnly(t *testing.T) {
	collector := newFakeCollector()
	collector.add("one", "o1", 5000, 100)
	collector.searchErr["two"] = quotaErr
	collector.add("three", "t1", 5000, 100)
	collector.add("four", "f1", 5000, 100)
	finder, cache, clk := newTrendFinder(t, collector, "one", "two", "three", "four")

	if _, err := cache.Store("trend:two", []models.ScoredVideo{{VideoID: "old2", Stats: models.VideoStats{Views: 800, Subs: 100}, ViralScore: 8}}); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Store("trend:three", []models.ScoredVideo{{VideoID: "old3", Stats: models.VideoStats{Views: 400, Subs: 100}, ViralScore: 4}}); err != nil {
		t.Fatal(err)
	}
	clk.now = clk.now.Add(20 * 24 * time.Hour)

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatalf("quota failure leaked as error: %v", err)
	}

	if fmt.Sprint(collector.searched) != "[one two]" {
		t.Errorf("searched = %v, want no live calls after the quota failure", collector.searched)
	}
	if !result.QuotaExceeded || !result.FromCache {
		t.Errorf("flags = %+v", result)
	}
	if got := fmt.Sprint(videoIDs(result.Videos)); got != "[o1 old2 old3]" {
		t.Errorf("videos = %s, want [o1 old2 old3]", got)
	}
}

func TestTrendsQuotaMidSampleKeepsScoredItems(t *testing.T) {
	collector := newFakeCollector()
	collector.add("one", "o1", 5000, 100)
	collector.add("one", "o2", 7000, 100)
	collector.statsErr["o2"] = apperr.New(apperr.QuotaExceeded, "youtube.videos", "quota")
	collector.add("two", "w1", 5000, 100)
	finder, cache, _ := newTrendFinder(t, collector, "one", "two")

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := fmt.Sprint(videoIDs(result.Videos)); got != "[o1]" {
		t.Errorf("videos = %s, want [o1]", got)
	}
	if !result.QuotaExceeded {
		t.Error("expected quotaExceeded")
	}
	if _, ok := cache.Lookup("trend:one"); ok {
		t.Error("partial sample must not be cached")
	}
}

func TestTrendsSkipsTransientKeyword(t *testing.T) {
	collector := newFakeCollector()
	collector.searchErr["bad"] = apperr.New(apperr.UpstreamTransient, "youtube.search", "502")
	collector.add("good", "g1", 5000, 100)
	finder, _, _ := newTrendFinder(t, collector, "bad", "good")

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Videos) != 1 || result.QuotaExceeded {
		t.Errorf("result = %+v", result)
	}
}

func TestTrendsPropagatesConfigErrors(t *testing.T) {
	collector := newFakeCollector()
	collector.searchErr["a"] = apperr.New(apperr.UpstreamConfig, "youtube.search", "api disabled")
	finder, _, _ := newTrendFinder(t, collector, "a", "b")

	if _, err := finder.Trends(context.Background()); !apperr.Is(err, apperr.UpstreamConfig) {
		t.Errorf("err = %v, want UpstreamConfig", err)
	}
}

func TestTrendsNothingFound(t *testing.T) {
	finder, _, _ := newTrendFinder(t, newFakeCollector(), "x", "y")

	result, err := finder.Trends(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Videos == nil || len(result.Videos) != 0 || result.Unfiltered {
		t.Errorf("result = %+v, want empty", result)
	}
}

type countingPacer struct{ waits int }

func (p *countingPacer) Wait(context.Context) error {
	p.waits++
	return nil
}

func TestTrendsPacing(t *testing.T) {
	collector := newFakeCollector()
	collector.add("a", "a1", 5000, 100)
	collector.add("a", "a2", 5000, 100)
	collector.add("b", "b1", 5000, 100)
	finder, _, _ := newTrendFinder(t, collector, "a", "b", "c")

	items, keywords := &countingPacer{}, &countingPacer{}
	finder.WithPacers(items, keywords)

	if _, err := finder.Trends(context.Background()); err != nil {
		t.Fatal(err)
	}
	if items.waits != 3 {
		t.Errorf("item waits = %d, want 3", items.waits)
	}
	if keywords.waits != 2 {
		t.Errorf("keyword waits = %d, want 2", keywords.waits)
	}
}
