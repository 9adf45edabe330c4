package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// SentNewsItem is an article that was already delivered.
type SentNewsItem struct {
	Hash   string    `json:"hash"`
	Title  string    `json:"title"`
	Link   string    `json:"link"`
	Topic  string    `json:"topic"`
	SentAt time.Time `json:"sent_at"`
	Source string    `json:"source"`
}

// History remembers delivered articles so later runs skip them.
type History interface {
	IsAlreadySent(hash string) bool
	IsLinkAlreadySent(link string) bool
	MarkAsSent(item SentNewsItem) error
	// Close persists pending state and releases resources.
	Close() error
}

// GenerateNewsHash creates a stable hash from the normalized title and the
// link's domain, so the same story re-published under a new URL path on the
// same site still matches.
func GenerateNewsHash(title, link string) string {
	normalizedTitle := strings.ToLower(strings.TrimSpace(title))
	normalizedTitle = strings.Join(strings.Fields(normalizedTitle), " ")

	h := sha256.New()
	h.Write([]byte(normalizedTitle + "|" + extractDomain(link)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func extractDomain(url string) string {
	if url == "" {
		return "unknown"
	}

	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	domain := strings.Split(url, "/")[0]
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return "unknown"
	}
	return strings.ToLower(domain)
}

func cutoff(now time.Time, ttl time.Duration) time.Time {
	return now.Add(-ttl)
}
