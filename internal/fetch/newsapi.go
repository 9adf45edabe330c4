package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
)

const newsAPIEndpoint = "https://newsapi.org/v2/"

// NewsAPIClient searches newsapi.org for foreign articles.
type NewsAPIClient struct {
	Endpoint string
	HTTP     *http.Client

	now func() time.Time
}

func NewNewsAPIClient(timeout time.Duration) *NewsAPIClient {
	return &NewsAPIClient{
		Endpoint: newsAPIEndpoint,
		HTTP:     &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Author      string    `json:"author"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Content     string    `json:"content"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (c *NewsAPIClient) FetchForeign(ctx context.Context, query, apiKey string) []news.Item {
	items, err := c.search(ctx, query, apiKey)
	if err != nil {
		logger.Error("NewsAPI search failed", "query", query, "error", err)
		return nil
	}
	metrics.ItemsFetched.WithLabelValues(string(news.Foreign)).Add(float64(len(items)))
	metrics.Global.AddFetched(len(items))
	return items
}

func (c *NewsAPIClient) search(ctx context.Context, query, apiKey string) ([]news.Item, error) {
	now := c.now()
	from := windowStart(now, time.UTC)

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.Format("2006-01-02"))
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	var body newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error parsing response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("newsapi returned status %d: %s", resp.StatusCode, body.Message)
	}

	items := make([]news.Item, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.Title == "" || a.URL == "" {
			continue
		}
		desc := a.Description
		if desc == "" {
			desc = a.Content
		}
		source := a.Source.Name
		if source == "" {
			source = "NewsAPI"
		}
		published := a.PublishedAt
		if published.IsZero() {
			published = now
		}
		items = append(items, news.Item{
			Title:       stripHTML(a.Title),
			Link:        a.URL,
			Description: stripHTML(desc),
			PublishedAt: published,
			Source:      source,
			IsForeign:   true,
			ImageURL:    a.URLToImage,
			Author:      a.Author,
		})
	}
	return keepRecent(items, from, now), nil
}

var _ Foreign = (*NewsAPIClient)(nil)
