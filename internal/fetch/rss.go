package fetch

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
)

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads RSS feeds list from YAML file
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// FeedSource is the domestic source used without Naver credentials: it
// reads every configured feed and keeps items mentioning the query.
type FeedSource struct {
	URLs   []string
	parser *gofeed.Parser

	now func() time.Time
}

func NewFeedSource(urls []string, timeout time.Duration) *FeedSource {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &FeedSource{URLs: urls, parser: parser, now: time.Now}
}

func (s *FeedSource) FetchDomestic(ctx context.Context, query string) []news.Item {
	var all []news.Item
	successCount := 0

	for _, url := range s.URLs {
		feed, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			logger.Warn("error parsing RSS", "url", url, "error", err)
			continue
		}
		successCount++
		for _, it := range feed.Items {
			if item, ok := feedItem(feed, it); ok && matches(item, query) {
				all = append(all, item)
			}
		}
	}
	logger.Debug("processed RSS feeds", "ok", successCount, "total", len(s.URLs), "matched", len(all))

	now := s.now()
	all = keepRecent(all, windowStart(now, seoul), now)
	metrics.ItemsFetched.WithLabelValues(string(news.Domestic)).Add(float64(len(all)))
	metrics.Global.AddFetched(len(all))
	return all
}

func feedItem(feed *gofeed.Feed, it *gofeed.Item) (news.Item, bool) {
	if it == nil || it.Title == "" || it.Link == "" {
		return news.Item{}, false
	}
	item := news.Item{
		Title:       stripHTML(it.Title),
		Link:        it.Link,
		Description: stripHTML(it.Description),
		Source:      hostOf(it.Link),
		SourceURL:   it.Link,
	}
	if feed.Title != "" {
		item.Source = feed.Title
	}
	switch {
	case it.PublishedParsed != nil:
		item.PublishedAt = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		item.PublishedAt = *it.UpdatedParsed
	}
	if it.Author != nil {
		item.Author = it.Author.Name
	}
	if it.Image != nil {
		item.ImageURL = it.Image.URL
	}
	return item, true
}

// matches reports whether any query word appears in title or description.
func matches(item news.Item, query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Description)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

var _ Domestic = (*FeedSource)(nil)
