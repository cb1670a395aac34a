// Package api exposes the finder, the AI helpers and the production
// libraries over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/monitoring"
	"shorts-studio/shared/storage"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

type Finder interface {
	SearchThresholds(minSubs, maxSubs *int64) models.Thresholds
	Search(ctx context.Context, keyword string, th models.Thresholds) (*models.SearchResult, error)
	Trends(ctx context.Context) (*models.SearchResult, error)
	AttachAnalysis(keyword, videoID string, analysis *models.ShortsAnalysis) error
}

type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.ShortsAnalysis, error)
}

type Translator interface {
	Translate(ctx context.Context, idea string) (string, error)
}

type VideoGenerator interface {
	Generate(ctx context.Context, prompt string, sceneNumber int) (*models.GeneratedVideo, error)
}

type Gallery interface {
	List() []models.GalleryItem
	Add(item models.GalleryItem) (models.GalleryItem, error)
}

type Scenes interface {
	All() storage.SceneData
	Save(rec models.SceneRecord) (string, error)
}

// Deps are the components served by the API. Monitor and Metrics may be nil.
type Deps struct {
	Finder     Finder
	Analyzer   Analyzer
	Translator Translator
	Videos     VideoGenerator
	Gallery    Gallery
	Scenes     Scenes
	Monitor    *monitoring.Monitor
	Metrics    *monitoring.Metrics
}

type Server struct {
	deps   Deps
	router *gin.Engine
	server *http.Server
	log    logger.Logger
}

func NewServer(cfg config.ServerConfig, deps Deps, log logger.Logger) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	if deps.Metrics != nil {
		router.Use(MetricsMiddleware(deps.Metrics))
	}

	s := &Server{
		deps:   deps,
		router: router,
		log:    log,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	if s.deps.Monitor != nil {
		s.router.GET("/health", monitoring.HealthHandler(s.deps.Monitor))
		s.router.GET("/status", monitoring.StatusHandler(s.deps.Monitor))
	}
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", s.deps.Metrics.Handler())
	}

	api := s.router.Group("/api")
	api.GET("/youtube/search", s.handleSearch)
	api.GET("/youtube/trends", s.handleTrends)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/generate-prompt", s.handleGeneratePrompt)
	api.POST("/generate-video", s.handleGenerateVideo)
	api.GET("/gallery", s.handleListGallery)
	api.POST("/gallery", s.handleAddGallery)
	api.GET("/video/scenes", s.handleListScenes)
	api.POST("/video/scenes", s.handleSaveScene)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}
