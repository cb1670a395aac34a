package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDocumentReadDefaults(t *testing.T) {
	dir := t.TempDir()
	doc := NewDocument(dir, "doc.json", func() CacheData { return CacheData{} }, logger.NewNop())

	t.Run("MissingFile", func(t *testing.T) {
		if got := doc.Read(); len(got) != 0 {
			t.Errorf("Read() = %v, want empty", got)
		}
	})

	t.Run("BlankFile", func(t *testing.T) {
		if err := os.WriteFile(doc.Path(), []byte("  \n"), 0644); err != nil {
			t.Fatal(err)
		}
		if got := doc.Read(); len(got) != 0 {
			t.Errorf("Read() = %v, want empty", got)
		}
	})

	t.Run("CorruptFile", func(t *testing.T) {
		if err := os.WriteFile(doc.Path(), []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if got := doc.Read(); got == nil || len(got) != 0 {
			t.Errorf("Read() = %v, want empty non-nil map", got)
		}
	})
}

func TestDocumentWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	doc := NewDocument(dir, "gallery.json", func() []models.GalleryItem { return []models.GalleryItem{} }, logger.NewNop())

	if err := doc.Write([]models.GalleryItem{{ID: 1, Title: "a", URL: "u"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gallery.json")); err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if got := doc.Read(); len(got) != 1 || got[0].Title != "a" {
		t.Errorf("Read() = %+v", got)
	}
}

func TestDocumentWriteIOError(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	// The data dir path runs through a regular file, so MkdirAll fails.
	doc := NewDocument(filepath.Join(blocker, "data"), "cache.json", func() CacheData { return CacheData{} }, logger.NewNop())
	err := doc.Write(CacheData{})
	if err == nil {
		t.Fatal("expected write error")
	}
	if !apperr.Is(err, apperr.IOError) {
		t.Errorf("error kind = %v, want IOError", apperr.KindOf(err))
	}
}

func TestKeywordCacheRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	cache := NewKeywordCache(t.TempDir(), logger.NewNop()).WithClock(fixedClock(now))

	videos := []models.ScoredVideo{
		{VideoID: "b", Title: "Second", Stats: models.VideoStats{Views: 50000, Subs: 200}, ViralScore: 250},
		{VideoID: "a", Title: "First", Stats: models.VideoStats{Views: 3000, Subs: 150}, ViralScore: 20, Transcript: "hello world"},
	}

	if _, err := cache.Store("recipe", videos); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	entry, ok := cache.Lookup("recipe")
	if !ok {
		t.Fatal("Lookup() found nothing")
	}
	if !reflect.DeepEqual(entry.Videos, videos) {
		t.Errorf("videos = %+v, want %+v", entry.Videos, videos)
	}
	if entry.LastUpdated != "2026-03-14" {
		t.Errorf("LastUpdated = %s, want 2026-03-14", entry.LastUpdated)
	}
	if entry.Keyword != "recipe" {
		t.Errorf("Keyword = %s", entry.Keyword)
	}
}

func TestKeywordCacheExactMatch(t *testing.T) {
	cache := NewKeywordCache(t.TempDir(), logger.NewNop())
	if _, err := cache.Store("Recipe", nil); err != nil {
		t.Fatal(err)
	}

	for _, kw := range []string{"recipe", "Recipe ", " Recipe"} {
		if _, ok := cache.Lookup(kw); ok {
			t.Errorf("Lookup(%q) should miss", kw)
		}
	}
	entry, ok := cache.Lookup("Recipe")
	if !ok {
		t.Fatal("Lookup(Recipe) should hit")
	}
	if entry.Videos == nil {
		t.Error("stored videos should be an empty slice, not nil")
	}
}

func TestKeywordCacheStoreReplaces(t *testing.T) {
	cache := NewKeywordCache(t.TempDir(), logger.NewNop())
	if _, err := cache.Store("k", []models.ScoredVideo{{VideoID: "1"}, {VideoID: "2"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Store("other", []models.ScoredVideo{{VideoID: "x"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Store("k", []models.ScoredVideo{{VideoID: "3"}}); err != nil {
		t.Fatal(err)
	}

	entry, _ := cache.Lookup("k")
	if len(entry.Videos) != 1 || entry.Videos[0].VideoID != "3" {
		t.Errorf("entry not replaced wholesale: %+v", entry.Videos)
	}
	if _, ok := cache.Lookup("other"); !ok {
		t.Error("unrelated keyword was lost")
	}
}

func TestFreshnessBoundary(t *testing.T) {
	entry := &models.KeywordCacheEntry{LastUpdated: "2026-01-01"}
	stored := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Freshness
	}{
		{"Same day", stored.Add(10 * time.Hour), Fresh},
		{"Two days later", stored.Add(48 * time.Hour), Fresh},
		{"One second before seven days", stored.Add(FreshnessWindow - time.Second), Fresh},
		{"Exactly seven days", stored.Add(FreshnessWindow), Stale},
		{"Thirty days", stored.Add(30 * 24 * time.Hour), Stale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FreshnessAt(entry, tt.now); got != tt.want {
				t.Errorf("FreshnessAt() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := FreshnessAt(&models.KeywordCacheEntry{LastUpdated: "yesterday"}, stored); got != Stale {
		t.Errorf("unparseable date should be stale, got %v", got)
	}
}

func TestKeywordCacheAnnotate(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	cache := NewKeywordCache(t.TempDir(), logger.NewNop()).WithClock(fixedClock(now))
	if _, err := cache.Store("k", []models.ScoredVideo{{VideoID: "v1"}, {VideoID: "v2"}}); err != nil {
		t.Fatal(err)
	}

	cache.WithClock(fixedClock(now.Add(72 * time.Hour)))
	analysis := &models.ShortsAnalysis{Hook: "cold open", Format: "humor"}
	if err := cache.Annotate("k", "v2", analysis); err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}

	entry, _ := cache.Lookup("k")
	if entry.Videos[1].Analysis == nil || entry.Videos[1].Analysis.Hook != "cold open" {
		t.Errorf("analysis not attached: %+v", entry.Videos[1])
	}
	if entry.LastUpdated != "2026-02-01" {
		t.Errorf("Annotate changed lastUpdated to %s", entry.LastUpdated)
	}

	if err := cache.Annotate("k", "missing", analysis); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("unknown video: err = %v, want InvalidInput", err)
	}
	if err := cache.Annotate("nope", "v1", analysis); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("unknown keyword: err = %v, want InvalidInput", err)
	}
}

func TestGalleryAdd(t *testing.T) {
	now := time.Date(2026, 5, 5, 12, 0, 0, 0, time.UTC)
	g := NewGallery(t.TempDir(), logger.NewNop())
	g.now = fixedClock(now)

	if got := g.List(); len(got) != 0 {
		t.Fatalf("new gallery not empty: %v", got)
	}

	first, err := g.Add(models.GalleryItem{Title: "one", URL: "https://v/1"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if first.ID != now.UnixMilli() || first.Date == "" {
		t.Errorf("defaults not applied: %+v", first)
	}

	if _, err := g.Add(models.GalleryItem{ID: 42, Title: "two", URL: "https://v/2", Date: "custom"}); err != nil {
		t.Fatal(err)
	}

	items := g.List()
	if len(items) != 2 || items[0].ID != 42 || items[1].Title != "one" {
		t.Errorf("gallery not newest-first: %+v", items)
	}
	if items[0].Date != "custom" {
		t.Errorf("caller date overwritten: %s", items[0].Date)
	}

	if _, err := g.Add(models.GalleryItem{Title: "no url"}); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("missing url: err = %v, want InvalidInput", err)
	}
}

func TestSceneLibrarySave(t *testing.T) {
	lib := NewSceneLibrary(t.TempDir(), logger.NewNop())

	key, err := lib.Save(models.SceneRecord{SceneNumber: 2, VideoURL: "first", Prompt: "p"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if key != "scene2" {
		t.Errorf("key = %s, want scene2", key)
	}

	if _, err := lib.Save(models.SceneRecord{SceneNumber: 2, VideoURL: "second"}); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Save(models.SceneRecord{SceneNumber: 6, VideoURL: "last"}); err != nil {
		t.Fatal(err)
	}

	scenes := lib.All()
	if len(scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(scenes))
	}
	if scenes["scene2"].VideoURL != "second" {
		t.Errorf("scene2 not overwritten: %+v", scenes["scene2"])
	}
	if scenes["scene2"].CreatedAt == "" {
		t.Error("CreatedAt not defaulted")
	}

	for _, n := range []int{0, 7, -1} {
		if _, err := lib.Save(models.SceneRecord{SceneNumber: n}); !apperr.Is(err, apperr.InvalidInput) {
			t.Errorf("scene %d: err = %v, want InvalidInput", n, err)
		}
	}
}
