package app

import (
	"fmt"

	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/fetch"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/scraper"
	"github.com/deusflow/newsletter/internal/storage"
)

// NewSources uses Naver search when credentials are configured and the RSS
// feeds otherwise. Foreign news always comes from NewsAPI.
func NewSources(cfg *config.Config) (Sources, error) {
	src := Sources{Foreign: fetch.NewNewsAPIClient(cfg.RequestTimeout)}
	if cfg.FillMissingContent {
		src.Filler = scraper.New(cfg.RequestTimeout)
	}

	if cfg.NaverClientID != "" && cfg.NaverClientSecret != "" {
		src.Domestic = fetch.NewNaverClient(cfg.NaverClientID, cfg.NaverClientSecret, cfg.RequestTimeout)
		return src, nil
	}

	feeds, err := fetch.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		return Sources{}, fmt.Errorf("no Naver credentials and no feeds: %w", err)
	}
	logger.Info("Naver credentials not set, using RSS feeds", "feeds", len(feeds))
	src.Domestic = fetch.NewFeedSource(feeds, cfg.RequestTimeout)
	return src, nil
}

// OpenHistory prefers PostgreSQL when DATABASE_URL is set and falls back to
// the JSON file.
func OpenHistory(cfg *config.Config) storage.History {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresHistory(cfg.DatabaseURL, cfg.HistoryTTLHours)
		if err == nil {
			if err := pg.Cleanup(); err != nil {
				logger.Warn("failed to clean up history", "error", err)
			}
			return pg
		}
		logger.Warn("PostgreSQL unavailable, falling back to file history", "error", err)
	}

	fh := storage.NewFileHistory(cfg.CacheFilePath, cfg.HistoryTTLHours)
	if err := fh.Load(); err != nil {
		logger.Warn("failed to load history file, starting empty", "path", cfg.CacheFilePath, "error", err)
	}
	return fh
}
