package youtube

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"shorts-studio/shared/logger"

	"github.com/PuerkitoBio/goquery"
)

// Segment is one caption cue.
type Segment struct {
	Text     string
	Start    float64
	Duration float64
}

// TranscriptFetcher reads caption tracks from the timedtext endpoint.
type TranscriptFetcher struct {
	baseURL  string
	language string
	client   *http.Client
	log      logger.Logger
}

func NewTranscriptFetcher(baseURL, language string, client *http.Client, log logger.Logger) *TranscriptFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &TranscriptFetcher{baseURL: baseURL, language: language, client: client, log: log}
}

// Segments returns the ordered caption cues for videoID.
func (t *TranscriptFetcher) Segments(ctx context.Context, videoID string) ([]Segment, error) {
	q := url.Values{}
	q.Set("v", videoID)
	if t.language != "" {
		q.Set("lang", t.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create caption request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption endpoint returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse captions: %w", err)
	}

	var segments []Segment
	doc.Find("text").Each(func(_ int, s *goquery.Selection) {
		// Cue bodies are entity-escaped twice ("&amp;#39;").
		text := strings.TrimSpace(html.UnescapeString(s.Text()))
		if text == "" {
			return
		}
		seg := Segment{Text: strings.Join(strings.Fields(text), " ")}
		if v, ok := s.Attr("start"); ok {
			seg.Start, _ = strconv.ParseFloat(v, 64)
		}
		if v, ok := s.Attr("dur"); ok {
			seg.Duration, _ = strconv.ParseFloat(v, 64)
		}
		segments = append(segments, seg)
	})

	return segments, nil
}

// Fetch joins the cues with single spaces. Missing captions, network errors
// and malformed bodies all yield ok=false.
func (t *TranscriptFetcher) Fetch(ctx context.Context, videoID string) (string, bool) {
	segments, err := t.Segments(ctx, videoID)
	if err != nil {
		t.log.Warn("Transcript unavailable", logger.String("video_id", videoID), logger.Error(err))
		return "", false
	}
	if len(segments) == 0 {
		t.log.Debug("No captions for video", logger.String("video_id", videoID))
		return "", false
	}

	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " "), true
}
