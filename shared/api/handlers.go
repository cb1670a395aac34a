package api

import (
	"net/http"
	"strconv"
	"strings"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
	"shorts-studio/shared/monitoring"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind onto the HTTP status returned to the client.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.QuotaExceeded:
		return http.StatusTooManyRequests
	case apperr.UpstreamPermission, apperr.UpstreamConfig, apperr.UpstreamTransient, apperr.ParseFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	body := gin.H{
		"error": errorMessage(err),
		"code":  kind.String(),
	}
	if hint := apperr.HintOf(err); hint != "" {
		body["hint"] = hint
	}
	_ = c.Error(err)
	c.JSON(statusFor(kind), body)
}

// errorMessage drops the op prefix and cause from an unwrapped classified
// error so the client sees only its message.
func errorMessage(err error) string {
	if e, ok := err.(*apperr.Error); ok && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": apperr.InvalidInput.String()})
}

func (s *Server) observeLookup(kind string, result *models.SearchResult, err error) {
	if s.deps.Metrics == nil {
		return
	}
	if err != nil {
		s.deps.Metrics.ObserveLookup(kind, monitoring.OutcomeError, 0)
		return
	}
	s.deps.Metrics.ObserveLookup(kind, monitoring.LookupOutcome(result), len(result.Videos))
}

func (s *Server) observeGeneration(kind string, err error) {
	if s.deps.Metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.deps.Metrics.Generations.WithLabelValues(kind, result).Inc()
}

func optionalInt64(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, false
	}
	return &v, true
}

func (s *Server) handleSearch(c *gin.Context) {
	keyword := c.Query("keyword")
	if strings.TrimSpace(keyword) == "" {
		badRequest(c, "keyword is required")
		return
	}
	minSubs, ok := optionalInt64(c, "minSubs")
	if !ok {
		badRequest(c, "minSubs must be a non-negative integer")
		return
	}
	maxSubs, ok := optionalInt64(c, "maxSubs")
	if !ok {
		badRequest(c, "maxSubs must be a non-negative integer")
		return
	}

	result, err := s.deps.Finder.Search(c.Request.Context(), keyword, s.deps.Finder.SearchThresholds(minSubs, maxSubs))
	s.observeLookup("search", result, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleTrends(c *gin.Context) {
	result, err := s.deps.Finder.Trends(c.Request.Context())
	s.observeLookup("trends", result, err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	analysis, err := s.deps.Analyzer.Analyze(c.Request.Context(), req)
	s.observeGeneration("analysis", err)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := gin.H{"videoId": req.VideoID, "analysis": analysis}
	if req.Keyword != "" {
		if err := s.deps.Finder.AttachAnalysis(req.Keyword, req.VideoID, analysis); err != nil {
			s.log.Warn("Could not attach analysis to cached video",
				logger.String("keyword", req.Keyword),
				logger.String("video_id", req.VideoID),
				logger.Error(err))
			resp["attached"] = false
		} else {
			resp["attached"] = true
		}
	}
	c.JSON(http.StatusOK, resp)
}

type promptRequest struct {
	KoreanText string `json:"koreanText"`
	Idea       string `json:"idea"`
}

func (s *Server) handleGeneratePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	idea := req.Idea
	if strings.TrimSpace(idea) == "" {
		idea = req.KoreanText
	}

	prompt, err := s.deps.Translator.Translate(c.Request.Context(), idea)
	s.observeGeneration("prompt", err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"englishPrompt": prompt})
}

type videoRequest struct {
	Prompt      string `json:"prompt"`
	SceneNumber int    `json:"sceneNumber"`
}

func (s *Server) handleGenerateVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	video, err := s.deps.Videos.Generate(c.Request.Context(), req.Prompt, req.SceneNumber)
	s.observeGeneration("video", err)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (s *Server) handleListGallery(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Gallery.List())
}

func (s *Server) handleAddGallery(c *gin.Context) {
	var item models.GalleryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	saved, err := s.deps.Gallery.Add(item)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": saved})
}

func (s *Server) handleListScenes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scenes": s.deps.Scenes.All()})
}

type sceneRequest struct {
	Scene *models.SceneRecord `json:"scene"`
}

func (s *Server) handleSaveScene(c *gin.Context) {
	var req sceneRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Scene == nil {
		badRequest(c, "scene data is invalid")
		return
	}

	key, err := s.deps.Scenes.Save(*req.Scene)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sceneKey": key})
}
