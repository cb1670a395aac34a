package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"

	"google.golang.org/genai"
)

// TextGenerator returns a single completion for prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini generator. Extra HTTP options let tests point the
// SDK at a local server.
func NewGemini(ctx context.Context, cfg *config.AIConfig, httpOpts *genai.HTTPOptions, httpClient *http.Client) (*Gemini, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, apperr.New(apperr.ConfigMissing, "ai", "GEMINI_API_KEY is not set").
			WithHint("add GEMINI_API_KEY to your .env file")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if httpOpts != nil {
		clientCfg.HTTPOptions = *httpOpts
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	return result.Text(), nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return apperr.Wrap(apperr.QuotaExceeded, "ai.generate", err).
				WithHint("the Gemini rate limit was reached; wait a minute and retry")
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrap(apperr.UpstreamPermission, "ai.generate", err).
				WithHint("check GEMINI_API_KEY")
		}
	}
	return apperr.Wrap(apperr.UpstreamTransient, "ai.generate", err)
}

// Analyzer turns a viral video into a shorts production plan.
type Analyzer struct {
	gen             TextGenerator
	transcriptLimit int
	log             logger.Logger
}

func NewAnalyzer(gen TextGenerator, cfg *config.AIConfig, log logger.Logger) *Analyzer {
	limit := cfg.TranscriptCharLimit
	if limit <= 0 {
		limit = 5000
	}
	return &Analyzer{gen: gen, transcriptLimit: limit, log: log}
}

var placeholderTitles = []string{"Title idea 1", "Title idea 2", "Title idea 3"}

const defaultFormat = "informational"

func (a *Analyzer) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.ShortsAnalysis, error) {
	if req.VideoID == "" || strings.TrimSpace(req.Title) == "" {
		return nil, apperr.New(apperr.InvalidInput, "ai.analyze", "videoId and title are required")
	}
	if a.gen == nil {
		return nil, apperr.New(apperr.ConfigMissing, "ai.analyze", "GEMINI_API_KEY is not set").
			WithHint("add GEMINI_API_KEY to your .env file")
	}

	prompt := a.buildAnalysisPrompt(req.Title, req.Transcript)
	a.log.Info("Requesting shorts analysis",
		logger.String("video_id", req.VideoID),
		logger.Bool("has_transcript", strings.TrimSpace(req.Transcript) != ""),
		logger.Int("prompt_chars", len(prompt)))

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze video %s: %w", req.VideoID, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.ParseFailure, "ai.analyze", "empty response from model")
	}

	analysis, err := a.parseAnalysisResponse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis for video %s: %w", req.VideoID, err)
	}
	return analysis, nil
}

func (a *Analyzer) buildAnalysisPrompt(title, transcript string) string {
	hasTranscript := strings.TrimSpace(transcript) != ""

	var source, transcriptBlock, inferNote, scriptNote string
	if hasTranscript {
		source = "Analyze the title and transcript of the video below"
		excerpt, truncated := truncateRunes(transcript, a.transcriptLimit)
		if truncated {
			excerpt += " (partial transcript)"
		}
		transcriptBlock = "**Transcript:**\n" + excerpt
	} else {
		source = "Based on the title of the video below"
		transcriptBlock = "**Note:** no transcript is available, so the analysis is based on the title only."
		inferNote = " - inferred from the title"
		scriptNote = " - written creatively from the title"
	}

	return fmt.Sprintf(`You are a YouTube Shorts analyst. %s, write a shorts plan with a high chance of going viral.

**Title:** %s

%s

Respond with JSON in the following format:
{
  "hook": "What happens in the first 3 seconds and why viewers keep watching%s",
  "format": "one of informational, humor, emotional, challenge",
  "recommendedTitles": ["title 1", "title 2", "title 3"],
  "script": "A short, punchy script that follows the flow of the video%s",
  "guide": "Filming guide (framing, lighting, music suggestions)",
  "aiVideoGuide": "Guide for producing the video with AI tools such as Runway, Pika or Luma: concrete prompts, scene breakdown, visual style, transitions and timing"
}

Important: respond with valid JSON only and no other commentary.`,
		source, title, transcriptBlock, inferNote, scriptNote)
}

type rawAnalysis struct {
	Hook              json.RawMessage `json:"hook"`
	Format            json.RawMessage `json:"format"`
	RecommendedTitles json.RawMessage `json:"recommendedTitles"`
	Script            json.RawMessage `json:"script"`
	Guide             json.RawMessage `json:"guide"`
	AIVideoGuide      json.RawMessage `json:"aiVideoGuide"`
}

func (a *Analyzer) parseAnalysisResponse(response string) (*models.ShortsAnalysis, error) {
	jsonStr := stripCodeFence(response)

	var result rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		startIdx := strings.Index(jsonStr, "{")
		endIdx := strings.LastIndex(jsonStr, "}")
		if startIdx == -1 || endIdx <= startIdx {
			return nil, apperr.New(apperr.ParseFailure, "ai.parse", fmt.Sprintf("no JSON found in response: %s", truncate(response, 200)))
		}
		jsonStr = jsonStr[startIdx : endIdx+1]

		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			sanitized := sanitizeJSON(jsonStr)
			if sanitizedErr := json.Unmarshal([]byte(sanitized), &result); sanitizedErr != nil {
				return nil, apperr.Wrap(apperr.ParseFailure, "ai.parse",
					fmt.Errorf("%w (sanitized version also failed: %v)", err, sanitizedErr))
			}
			a.log.Warn("Had to sanitize malformed JSON from model")
		}
	}

	analysis := &models.ShortsAnalysis{
		Hook:         orDefault(ParseField(result.Hook).Flatten(), "Analysis in progress..."),
		Script:       orDefault(ParseField(result.Script).Flatten(), "Script in progress..."),
		Guide:        orDefault(ParseField(result.Guide).Flatten(), "Filming guide in progress..."),
		AIVideoGuide: orDefault(ParseField(result.AIVideoGuide).Flatten(), "AI video guide in progress..."),
		Format:       defaultFormat,
	}

	if format := ParseField(result.Format); format.Kind == FieldText && strings.TrimSpace(format.Text) != "" {
		analysis.Format = format.Text
	}

	if titles := ParseField(result.RecommendedTitles); titles.Kind == FieldList {
		analysis.RecommendedTitles = make([]string, 0, len(placeholderTitles))
		for _, e := range titles.Entries {
			if len(analysis.RecommendedTitles) == len(placeholderTitles) {
				break
			}
			analysis.RecommendedTitles = append(analysis.RecommendedTitles, e.String())
		}
	} else {
		analysis.RecommendedTitles = append([]string(nil), placeholderTitles...)
	}

	return analysis, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func sanitizeJSON(jsonStr string) string {
	// Escape stray quotes inside single-line string values.
	lines := strings.Split(jsonStr, "\n")
	var sanitizedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if colonIdx := strings.Index(line, ":"); colonIdx != -1 && strings.Contains(line, "\"") {
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				if lastQuoteIdx := strings.LastIndex(afterColon, "\""); lastQuoteIdx > 0 {
					content := afterColon[1:lastQuoteIdx]
					content = strings.ReplaceAll(content, `\"`, `"`)
					content = strings.ReplaceAll(content, `"`, `\"`)
					line = beforeColon + " \"" + content + "\"" + afterColon[lastQuoteIdx+1:]
				}
			}
		}

		sanitizedLines = append(sanitizedLines, line)
	}

	return strings.Join(sanitizedLines, "\n")
}

func truncateRunes(s string, limit int) (string, bool) {
	r := []rune(s)
	if len(r) <= limit {
		return s, false
	}
	return string(r[:limit]), true
}

func truncate(s string, maxLength int) string {
	if out, cut := truncateRunes(s, maxLength); cut {
		return out + "..."
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
