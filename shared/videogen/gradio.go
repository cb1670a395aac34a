// Package videogen drives a text-to-video model hosted as a Gradio app.
package videogen

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"
)

// Generator submits one prediction and waits for its result.
type Generator struct {
	cfg    config.VideoConfig
	client *http.Client
	log    logger.Logger
}

func NewGenerator(cfg *config.VideoConfig, client *http.Client, log logger.Logger) *Generator {
	if client == nil {
		client = &http.Client{}
	}
	return &Generator{cfg: *cfg, client: client, log: log}
}

type callRequest struct {
	Data []any `json:"data"`
}

type callResponse struct {
	EventID string `json:"event_id"`
}

// Generate renders prompt into a clip. The call is made once; failures are
// reported with a user-facing message and never retried.
func (g *Generator) Generate(ctx context.Context, prompt string, sceneNumber int) (*models.GeneratedVideo, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.New(apperr.InvalidInput, "videogen", "prompt is required")
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	g.log.Info("Submitting video generation",
		logger.String("model", g.cfg.Model),
		logger.Int("scene_number", sceneNumber),
		logger.Int("duration_seconds", g.cfg.DurationSeconds))

	eventID, err := g.submit(ctx, prompt)
	if err != nil {
		return nil, friendly(err)
	}

	data, err := g.await(ctx, eventID)
	if err != nil {
		return nil, friendly(err)
	}

	url, err := videoURL(data)
	if err != nil {
		return nil, err
	}

	g.log.Info("Video generated",
		logger.String("event_id", eventID),
		logger.Int("scene_number", sceneNumber),
		logger.Duration("elapsed", time.Since(start)))

	return &models.GeneratedVideo{
		URL:         url,
		SceneNumber: sceneNumber,
		Prompt:      prompt,
		Model:       g.cfg.Model,
		Duration:    g.cfg.DurationSeconds,
	}, nil
}

func (g *Generator) callURL() string {
	return strings.TrimRight(g.cfg.SpaceURL, "/") + g.cfg.CallPath + g.cfg.Endpoint
}

func (g *Generator) submit(ctx context.Context, prompt string) (string, error) {
	// Positional inputs: prompt, negative prompt, resolution, duration.
	body, err := json.Marshal(callRequest{Data: []any{prompt, "", g.cfg.Resolution, g.cfg.DurationSeconds}})
	if err != nil {
		return "", fmt.Errorf("failed to encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.callURL(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("prediction request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out callResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperr.Wrap(apperr.ParseFailure, "videogen.submit", err)
	}
	if out.EventID == "" {
		return "", apperr.New(apperr.ParseFailure, "videogen.submit", "prediction response has no event_id")
	}
	return out.EventID, nil
}

// await reads the event stream for eventID until the prediction completes.
func (g *Generator) await(ctx context.Context, eventID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.callURL()+"/"+eventID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create result request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("result stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			switch event {
			case "complete":
				return json.RawMessage(data), nil
			case "error":
				if data == "" || data == "null" {
					data = "the model reported an error"
				}
				return nil, fmt.Errorf("prediction failed: %s", data)
			default:
				g.log.Debug("Prediction progress", logger.String("event", event))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result stream: %w", err)
	}
	return nil, errors.New("result stream ended before the prediction completed")
}

// videoURL takes the first output, which is either a bare URL or a file
// object carrying one.
func videoURL(data json.RawMessage) (string, error) {
	var outputs []json.RawMessage
	if err := json.Unmarshal(data, &outputs); err != nil {
		return "", apperr.Wrap(apperr.ParseFailure, "videogen.result", err)
	}
	if len(outputs) == 0 {
		return "", apperr.New(apperr.ParseFailure, "videogen.result", "video URL not found in model output")
	}

	var s string
	if err := json.Unmarshal(outputs[0], &s); err == nil && s != "" {
		return s, nil
	}

	var file struct {
		URL   string `json:"url"`
		Video *struct {
			URL string `json:"url"`
		} `json:"video"`
	}
	if err := json.Unmarshal(outputs[0], &file); err == nil {
		if file.URL != "" {
			return file.URL, nil
		}
		if file.Video != nil && file.Video.URL != "" {
			return file.Video.URL, nil
		}
	}
	return "", apperr.New(apperr.ParseFailure, "videogen.result", "video URL not found in model output")
}

// friendly rewrites queue, timeout and rate limit failures into messages a
// user can act on.
func friendly(err error) error {
	if apperr.KindOf(err) != apperr.Unknown {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "queue"), strings.Contains(msg, "timeout"):
		return &apperr.Error{
			Kind:    apperr.UpstreamTransient,
			Op:      "videogen",
			Message: "the queue is too long or the request timed out, please try again shortly",
			Err:     err,
		}
	case strings.Contains(msg, "rate limit"):
		return &apperr.Error{
			Kind:    apperr.QuotaExceeded,
			Op:      "videogen",
			Message: "the request limit was exceeded, please try again shortly",
			Err:     err,
		}
	default:
		return apperr.Wrap(apperr.UpstreamTransient, "videogen", err)
	}
}
