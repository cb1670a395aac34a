package ai

import (
	"context"
	"fmt"
	"strings"

	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
)

// PromptTranslator rewrites a free-form scene idea into a keyword-style
// English prompt for the video model.
type PromptTranslator struct {
	gen TextGenerator
	log logger.Logger
}

func NewPromptTranslator(gen TextGenerator, log logger.Logger) *PromptTranslator {
	return &PromptTranslator{gen: gen, log: log}
}

func (p *PromptTranslator) Translate(ctx context.Context, idea string) (string, error) {
	if strings.TrimSpace(idea) == "" {
		return "", apperr.New(apperr.InvalidInput, "ai.translate", "scene description is required")
	}
	if p.gen == nil {
		return "", apperr.New(apperr.ConfigMissing, "ai.translate", "GEMINI_API_KEY is not set").
			WithHint("add GEMINI_API_KEY to your .env file")
	}

	text, err := p.gen.Generate(ctx, buildTranslationPrompt(idea))
	if err != nil {
		return "", fmt.Errorf("failed to translate prompt: %w", err)
	}

	prompt := strings.TrimSpace(text)
	if prompt == "" {
		return "", apperr.New(apperr.ParseFailure, "ai.translate", "empty response from model")
	}

	p.log.Info("Prompt translated", logger.Int("idea_chars", len(idea)), logger.Int("prompt_chars", len(prompt)))
	return prompt, nil
}

func buildTranslationPrompt(idea string) string {
	return fmt.Sprintf(`Convert the user's idea into a detailed English prompt for an AI video generation model (Wan2.1).

Rules:
1. Prefer comma-separated descriptive phrases ("word, word, word") over full sentences.
2. Add lighting, texture and camera angle details.
3. Output English only.
4. Include detailed descriptions for a cinematic, high-quality video.

User idea: "%s"`, idea)
}
