// Package scraper fills in missing article text from the article page.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/news"
	"github.com/deusflow/newsletter/internal/retry"
)

const (
	defaultLimit = 5
	minParagraph = 20
	maxContent   = 600
)

// Describer fetches pages of items that arrived without a description.
type Describer struct {
	HTTP *http.Client
	// Limit caps pages fetched per call.
	Limit int
	// Pause is the wait between page requests.
	Pause time.Duration
	Sleep retry.Sleeper
}

func New(timeout time.Duration) *Describer {
	return &Describer{
		HTTP:  &http.Client{Timeout: timeout},
		Limit: defaultLimit,
		Pause: 500 * time.Millisecond,
		Sleep: retry.Sleep,
	}
}

// Fill returns items with empty descriptions filled where the page could be
// read. Items that fail keep their empty description.
func (d *Describer) Fill(ctx context.Context, items []news.Item) []news.Item {
	out := make([]news.Item, len(items))
	copy(out, items)

	fetched := 0
	for i, it := range out {
		if strings.TrimSpace(it.Description) != "" || it.Link == "" {
			continue
		}
		if d.Limit > 0 && fetched >= d.Limit {
			break
		}
		if fetched > 0 && d.Pause > 0 {
			if err := d.Sleep(ctx, d.Pause); err != nil {
				break
			}
		}
		fetched++

		text, err := d.describe(ctx, it.Link)
		if err != nil {
			logger.Debug("can't get article content", "link", it.Link, "error", err)
			continue
		}
		out[i].Description = text
	}
	return out
}

func (d *Describer) describe(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	text := metaDescription(doc)
	if text == "" {
		text = paragraphs(doc)
	}
	if text == "" {
		return "", fmt.Errorf("no content")
	}
	return clip(text, maxContent), nil
}

func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[property="og:description"]`, `meta[name="description"]`, `meta[name="twitter:description"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return strings.Join(strings.Fields(v), " ")
			}
		}
	}
	return ""
}

// paragraphs takes the first few substantial paragraphs of the article body.
func paragraphs(doc *goquery.Document) string {
	selectors := []string{
		"article p",
		"#articleBodyContents p",
		"#dic_area",
		".article_body p",
		".news_end p",
		"main p",
		"p",
	}

	var parts []string
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if utf8.RuneCountInString(text) > minParagraph {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			break
		}
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, " ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
