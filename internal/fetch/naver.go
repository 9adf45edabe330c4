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

const (
	naverEndpoint = "https://openapi.naver.com/v1/search/news.json"
	naverDisplay  = 30
	naverSource   = "Naver News"
)

// NaverClient searches the Naver news API.
type NaverClient struct {
	ClientID     string
	ClientSecret string
	Endpoint     string
	HTTP         *http.Client

	now func() time.Time
}

func NewNaverClient(clientID, clientSecret string, timeout time.Duration) *NaverClient {
	return &NaverClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     naverEndpoint,
		HTTP:         &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

type naverResponse struct {
	Items []struct {
		Title        string `json:"title"`
		OriginalLink string `json:"originallink"`
		Link         string `json:"link"`
		Description  string `json:"description"`
		PubDate      string `json:"pubDate"`
	} `json:"items"`
}

func (c *NaverClient) FetchDomestic(ctx context.Context, query string) []news.Item {
	items, err := c.search(ctx, query)
	if err != nil {
		logger.Error("Naver search failed", "query", query, "error", err)
		return nil
	}
	metrics.ItemsFetched.WithLabelValues(string(news.Domestic)).Add(float64(len(items)))
	metrics.Global.AddFetched(len(items))
	return items
}

func (c *NaverClient) search(ctx context.Context, query string) ([]news.Item, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("display", fmt.Sprint(naverDisplay))
	params.Set("sort", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Naver-Client-Id", c.ClientID)
	req.Header.Set("X-Naver-Client-Secret", c.ClientSecret)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("naver API returned status: %d", resp.StatusCode)
	}

	var body naverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	now := c.now()
	items := make([]news.Item, 0, len(body.Items))
	for _, it := range body.Items {
		if it.Title == "" || it.Link == "" {
			continue
		}
		published := now
		if t, err := time.Parse(time.RFC1123Z, it.PubDate); err == nil {
			published = t
		}

		original := it.OriginalLink
		if original == "" {
			original = it.Link
		}
		source := hostOf(original)
		if source == "" {
			source = naverSource
		}

		items = append(items, news.Item{
			Title:       stripHTML(it.Title),
			Link:        it.Link,
			Description: stripHTML(it.Description),
			PublishedAt: published,
			Source:      source,
			SourceURL:   it.OriginalLink,
		})
	}
	return keepRecent(items, windowStart(now, seoul), now), nil
}

var _ Domestic = (*NaverClient)(nil)
