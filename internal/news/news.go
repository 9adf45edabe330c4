package news

import (
	"strings"
	"time"
)

// Item is a single article returned by a fetch adapter.
type Item struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
	Source      string
	SourceURL   string
	IsForeign   bool
	ImageURL    string
	Author      string
}

// Side separates domestic results from foreign ones. It changes prompt
// wording and which threshold applies.
type Side string

const (
	Domestic Side = "domestic"
	Foreign  Side = "foreign"
)

// Label is a human-readable side name used in prompts and log lines.
func (s Side) Label() string {
	if s == Foreign {
		return "foreign news"
	}
	return "domestic news"
}

// Category is the closed set of labels the model may assign.
type Category string

const (
	CategoryResearch   Category = "research"
	CategoryPolicy     Category = "policy"
	CategoryInvestment Category = "investment"
	CategoryProduct    Category = "product"
	CategoryMarket     Category = "market"
	CategoryTechnology Category = "technology"

	// CategoryPlaceholder marks items whose category could not be determined.
	CategoryPlaceholder Category = "news"
)

// Categories lists the labels offered to the model, in prompt order.
var Categories = []Category{
	CategoryResearch,
	CategoryPolicy,
	CategoryInvestment,
	CategoryProduct,
	CategoryMarket,
	CategoryTechnology,
}

// ParseCategory maps free model output onto the label set.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryPlaceholder
}

const (
	MinScore = 1.0
	MaxScore = 10.0
)

// ScoredItem is an Item after relevance scoring.
type ScoredItem struct {
	Item

	RelevanceScore  float64
	GroupID         string
	RelevanceReason string
	Category        Category
	Origin          Side

	// Summary is filled by the translator for foreign items.
	Summary string
}

// SummaryOrDescription returns the translated summary when present.
func (s ScoredItem) SummaryOrDescription() string {
	if s.Summary != "" {
		return s.Summary
	}
	return s.Description
}

// TopicDigest is everything collected for one topic before rendering.
type TopicDigest struct {
	Topic    string
	Domestic []ScoredItem
	Foreign  []ScoredItem
}

// Empty reports whether neither side has any items.
func (d TopicDigest) Empty() bool {
	return len(d.Domestic) == 0 && len(d.Foreign) == 0
}

// ClampScore forces a score into [MinScore, MaxScore].
func ClampScore(v float64) float64 {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
