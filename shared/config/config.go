package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Video      VideoConfig      `yaml:"video"`
	Storage    StorageConfig    `yaml:"storage"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Trends     TrendsConfig     `yaml:"trends"`
	Server     ServerConfig     `yaml:"server"`
	Logging    logger.Config    `yaml:"logging"`
	Email      EmailConfig      `yaml:"email"`
	Schedule   string           `yaml:"schedule"`
}

type YouTubeConfig struct {
	APIKey             string        `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	Endpoint           string        `yaml:"endpoint"`
	SearchBatchSize    int64         `yaml:"search_batch_size"`
	TrendBatchSize     int64         `yaml:"trend_batch_size"`
	TrendSampleSize    int           `yaml:"trend_sample_size"`
	ItemPause          time.Duration `yaml:"item_pause"`
	KeywordPause       time.Duration `yaml:"keyword_pause"`
	TranscriptURL      string        `yaml:"transcript_url"`
	TranscriptLanguage string        `yaml:"transcript_language"`
}

type AIConfig struct {
	GeminiAPIKey        string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model               string `yaml:"model"`
	TranscriptCharLimit int    `yaml:"transcript_char_limit"`
}

type VideoConfig struct {
	SpaceURL        string        `yaml:"space_url"`
	CallPath        string        `yaml:"call_path"`
	Endpoint        string        `yaml:"endpoint"`
	Model           string        `yaml:"model"`
	DurationSeconds int           `yaml:"duration_seconds"`
	Resolution      string        `yaml:"resolution"`
	Timeout         time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type ThresholdsConfig struct {
	Search models.Thresholds `yaml:"search"`
	Trends models.Thresholds `yaml:"trends"`
}

type TrendsConfig struct {
	SeedKeywords []string `yaml:"seed_keywords"`
	TopN         int      `yaml:"top_n"`
}

type ServerConfig struct {
	Port  int  `yaml:"port"`
	Debug bool `yaml:"debug"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether a trend digest can be mailed.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

// DefaultSeedKeywords are the content categories sampled by the trend digest.
var DefaultSeedKeywords = []string{
	"shorts", "vlog", "cooking", "workout", "daily life",
	"travel", "pets", "beauty", "fashion", "gaming",
	"music", "drama", "movies", "books", "study",
}

func SearchThresholds() models.Thresholds {
	return models.Thresholds{MinScore: 10, VeryViralScore: 100, MinSubs: 100, MaxSubs: 1000}
}

func TrendThresholds() models.Thresholds {
	return models.Thresholds{MinScore: 2, VeryViralScore: 20, MinSubs: 10, MaxSubs: 10000}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	return LoadFile(configFile)
}

// LoadFile reads path (a missing file yields defaults), overlays environment
// credentials and validates the result.
func LoadFile(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.YouTube.SearchBatchSize <= 0 {
		c.YouTube.SearchBatchSize = 20
	}
	if c.YouTube.TrendBatchSize <= 0 {
		c.YouTube.TrendBatchSize = 10
	}
	if c.YouTube.TrendSampleSize <= 0 {
		c.YouTube.TrendSampleSize = 3
	}
	if c.YouTube.ItemPause <= 0 {
		c.YouTube.ItemPause = 100 * time.Millisecond
	}
	if c.YouTube.KeywordPause <= 0 {
		c.YouTube.KeywordPause = 200 * time.Millisecond
	}
	if c.YouTube.TranscriptURL == "" {
		c.YouTube.TranscriptURL = "https://www.youtube.com/api/timedtext"
	}
	if c.YouTube.TranscriptLanguage == "" {
		c.YouTube.TranscriptLanguage = "en"
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.TranscriptCharLimit <= 0 {
		c.AI.TranscriptCharLimit = 5000
	}

	if c.Video.SpaceURL == "" {
		c.Video.SpaceURL = "https://wan-video-wan2-1-t2v-14b.hf.space"
	}
	if c.Video.CallPath == "" {
		c.Video.CallPath = "/gradio_api/call"
	}
	if c.Video.Endpoint == "" {
		c.Video.Endpoint = "/predict"
	}
	if c.Video.Model == "" {
		c.Video.Model = "Wan-Video/Wan2.1-T2V-14B"
	}
	if c.Video.DurationSeconds <= 0 {
		c.Video.DurationSeconds = 10
	}
	if c.Video.Resolution == "" {
		c.Video.Resolution = "1280*720"
	}
	if c.Video.Timeout <= 0 {
		c.Video.Timeout = 10 * time.Minute
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}

	if c.Thresholds.Search == (models.Thresholds{}) {
		c.Thresholds.Search = SearchThresholds()
	}
	if c.Thresholds.Trends == (models.Thresholds{}) {
		c.Thresholds.Trends = TrendThresholds()
	}

	if len(c.Trends.SeedKeywords) == 0 {
		c.Trends.SeedKeywords = append([]string(nil), DefaultSeedKeywords...)
	}
	if c.Trends.TopN <= 0 {
		c.Trends.TopN = 20
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" {
		return apperr.New(apperr.ConfigMissing, "", "YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key)")
	}
	for name, th := range map[string]models.Thresholds{"search": c.Thresholds.Search, "trends": c.Thresholds.Trends} {
		if th.MinSubs > th.MaxSubs {
			return fmt.Errorf("thresholds.%s: min_subs %d exceeds max_subs %d", name, th.MinSubs, th.MaxSubs)
		}
	}
	return nil
}
