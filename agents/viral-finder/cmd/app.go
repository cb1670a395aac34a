package main

import (
	"context"
	"fmt"
	"net/http"

	viralfinder "shorts-studio/agents/viral-finder"
	"shorts-studio/agents/viral-finder/youtube"
	"shorts-studio/shared/ai"
	"shorts-studio/shared/api"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/config"
	"shorts-studio/shared/email"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/monitoring"
	"shorts-studio/shared/ratelimit"
	"shorts-studio/shared/scheduler"
	"shorts-studio/shared/storage"
	"shorts-studio/shared/videogen"
)

// app holds every component wired from one config.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	finder     *viralfinder.Finder
	analyzer   *ai.Analyzer
	translator *ai.PromptTranslator
	videos     *videogen.Generator
	gallery    *storage.Gallery
	scenes     *storage.SceneLibrary
	monitor    *monitoring.Monitor
	metrics    *monitoring.Metrics
	agent      *viralfinder.TrendAgent
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	client, err := youtube.NewClient(ctx, &cfg.YouTube, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}

	cache := storage.NewKeywordCache(cfg.Storage.DataDir, log)
	finder := viralfinder.New(client, cache, viralfinder.OptionsFromConfig(cfg), log).
		WithPacers(ratelimit.Every(cfg.YouTube.ItemPause), ratelimit.Every(cfg.YouTube.KeywordPause))

	// AI endpoints stay registered without a key and fail per call.
	var gen ai.TextGenerator
	gemini, err := ai.NewGemini(ctx, &cfg.AI, nil, nil)
	switch {
	case err == nil:
		gen = gemini
	case apperr.Is(err, apperr.ConfigMissing):
		log.Warn("Gemini API key not set, AI features disabled")
	default:
		return nil, err
	}

	var mailer viralfinder.DigestMailer
	if cfg.Email.Enabled() {
		mailer = email.NewSender(&cfg.Email, log)
	}

	metrics := monitoring.NewMetrics()
	return &app{
		cfg:        cfg,
		log:        log,
		finder:     finder,
		analyzer:   ai.NewAnalyzer(gen, &cfg.AI, log),
		translator: ai.NewPromptTranslator(gen, log),
		videos:     videogen.NewGenerator(&cfg.Video, &http.Client{}, log),
		gallery:    storage.NewGallery(cfg.Storage.DataDir, log),
		scenes:     storage.NewSceneLibrary(cfg.Storage.DataDir, log),
		monitor:    monitoring.NewMonitor(log),
		metrics:    metrics,
		agent:      viralfinder.NewTrendAgent(finder, mailer, len(cfg.Trends.SeedKeywords), metrics, log),
	}, nil
}

func (a *app) newServer() *api.Server {
	return api.NewServer(a.cfg.Server, api.Deps{
		Finder:     a.finder,
		Analyzer:   a.analyzer,
		Translator: a.translator,
		Videos:     a.videos,
		Gallery:    a.gallery,
		Scenes:     a.scenes,
		Monitor:    a.monitor,
		Metrics:    a.metrics,
	}, a.log)
}

func (a *app) newScheduler() *scheduler.Scheduler {
	return scheduler.New(a.cfg.Schedule, a.agent, a.monitor, a.metrics, a.log)
}
