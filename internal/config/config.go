package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// AI settings
	AIProvider    string  `env:"AI_PROVIDER" envDefault:"gemini"` // gemini | openai
	AIAPIKey      string  `env:"AI_API_KEY"`
	GeminiAPIKey  string  `env:"GEMINI_API_KEY"`
	ModelOverride string  `env:"GEMINI_MODEL"`
	MaxAIRequests int     `env:"MAX_AI_REQUESTS" envDefault:"0"` // 0 = unlimited
	AIRequestsRPS float64 `env:"AI_REQUESTS_PER_SECOND" envDefault:"0"`

	// Domestic source (Naver search). Without credentials the RSS feeds are used.
	NaverClientID     string `env:"NAVER_CLIENT_ID"`
	NaverClientSecret string `env:"NAVER_CLIENT_SECRET"`
	FeedsConfigPath   string `env:"FEEDS_CONFIG_PATH" envDefault:"configs/feeds.yaml"`

	// Fetch the article page for items without a description.
	FillMissingContent bool `env:"FILL_MISSING_CONTENT" envDefault:"true"`

	// Topics
	TopicsFile string `env:"TOPICS_FILE" envDefault:"configs/topics.yaml"`
	Topic      string `env:"TOPIC"`

	// Delivery
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`
	DryRun         bool   `env:"DRY_RUN" envDefault:"false"`

	// History of delivered items
	DatabaseURL     string `env:"DATABASE_URL"`
	CacheFilePath   string `env:"CACHE_FILE_PATH" envDefault:"sent_news.json"`
	HistoryTTLHours int    `env:"HISTORY_TTL_HOURS" envDefault:"48"`

	// Threshold overrides; zero keeps the tuning default.
	DomesticThreshold         float64 `env:"DOMESTIC_THRESHOLD"`
	ForeignThreshold          float64 `env:"FOREIGN_THRESHOLD"`
	DomesticFallbackThreshold float64 `env:"DOMESTIC_FALLBACK_THRESHOLD"`
	ForeignFallbackThreshold  float64 `env:"FOREIGN_FALLBACK_THRESHOLD"`
	TargetLanguage            string  `env:"TARGET_LANGUAGE"`

	// App settings
	Debug                bool          `env:"DEBUG" envDefault:"false"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"text"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	EnableHTTPMonitoring bool          `env:"ENABLE_HTTP_MONITORING" envDefault:"false"`
	MonitoringPort       string        `env:"MONITORING_PORT" envDefault:"8080"`

	Tuning Tuning
	Topics []Topic
}

// Load reads .env (when present) and the environment, then the topics file.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	// GEMINI_API_KEY is the historical name of the AI key.
	if cfg.AIAPIKey == "" {
		cfg.AIAPIKey = cfg.GeminiAPIKey
	}

	cfg.Tuning = cfg.applyOverrides(DefaultTuning())

	topics, err := LoadTopics(cfg.TopicsFile)
	switch {
	case err == nil:
		cfg.Topics = topics
	case errors.Is(err, os.ErrNotExist) && cfg.Topic != "":
		cfg.Topics = []Topic{{Topic: cfg.Topic}}
	default:
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) applyOverrides(t Tuning) Tuning {
	if c.DomesticThreshold > 0 {
		t.Domestic.Primary = c.DomesticThreshold
	}
	if c.ForeignThreshold > 0 {
		t.Foreign.Primary = c.ForeignThreshold
	}
	if c.DomesticFallbackThreshold > 0 {
		t.Domestic.Fallback = c.DomesticFallbackThreshold
	}
	if c.ForeignFallbackThreshold > 0 {
		t.Foreign.Fallback = c.ForeignFallbackThreshold
	}
	if c.TargetLanguage != "" {
		t.TargetLanguage = c.TargetLanguage
	}
	return t
}

func (c *Config) Validate() error {
	if c.AIAPIKey == "" {
		return fmt.Errorf("AI_API_KEY (or GEMINI_API_KEY) is required")
	}
	if c.AIProvider != "gemini" && c.AIProvider != "openai" {
		return fmt.Errorf("AI_PROVIDER must be 'gemini' or 'openai'")
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("no topics configured: set TOPICS_FILE or TOPIC")
	}
	if !c.DryRun {
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required")
		}
	}
	return nil
}
