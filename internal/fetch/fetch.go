// Package fetch adapts external news sources into news.Item values. Every
// adapter logs its failures and returns an empty list instead of an error.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/deusflow/newsletter/internal/news"
)

// Domestic searches local-language news.
type Domestic interface {
	FetchDomestic(ctx context.Context, query string) []news.Item
}

// Foreign searches foreign news with a per-topic API key.
type Foreign interface {
	FetchForeign(ctx context.Context, query, apiKey string) []news.Item
}

// seoul is the reference zone for the "since yesterday" window.
var seoul = time.FixedZone("KST", 9*60*60)

// windowStart is 00:00 of the day before now, in loc.
func windowStart(now time.Time, loc *time.Location) time.Time {
	y := now.In(loc).AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, loc)
}

// keepRecent drops items published before from or after now. Items without
// a date are kept.
func keepRecent(items []news.Item, from, now time.Time) []news.Item {
	out := items[:0]
	for _, it := range items {
		if it.PublishedAt.IsZero() || (!it.PublishedAt.Before(from) && !it.PublishedAt.After(now)) {
			out = append(out, it)
		}
	}
	return out
}

// stripHTML returns the text content of an HTML fragment with entities
// decoded and whitespace collapsed.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + s + "</div>"))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// hostOf returns the host of rawURL without a leading "www.".
func hostOf(rawURL string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	host := strings.SplitN(u, "/", 2)[0]
	host = strings.SplitN(host, "?", 2)[0]
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
