// Package postprocess sorts, deduplicates and threshold-filters scored items.
package postprocess

import (
	"slices"
	"unicode/utf8"

	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
)

// Process returns the items worth including for one side, best first.
//
// Unique items at or above the primary threshold are kept, up to MaxResults.
// When none qualify, the fallback threshold applies with FallbackMaxResults.
// When even that keeps nothing, the top FallbackMaxResults unique items are
// returned below it, so the result is never empty while at least one unique
// candidate exists.
func Process(items []news.ScoredItem, side news.Side, tuning config.Tuning) []news.ScoredItem {
	if len(items) == 0 {
		return nil
	}

	sorted := slices.Clone(items)
	SortByScore(sorted)

	unique := Dedup(sorted, tuning.SignatureRunes, tuning.KeywordMinRunes)
	if removed := len(sorted) - len(unique); removed > 0 {
		logger.Debug("removed duplicates", "side", string(side), "removed", removed, "kept", len(unique))
		metrics.DuplicatesRemoved.WithLabelValues("signature").Add(float64(removed))
		metrics.Global.AddDuplicatesFiltered(removed)
	}
	if len(unique) == 0 {
		return nil
	}

	th := tuning.ThresholdsFor(side)
	if out := filter(unique, th.Primary, tuning.MaxResults); len(out) > 0 {
		metrics.ItemsSelected.WithLabelValues(string(side), "threshold").Add(float64(len(out)))
		return out
	}

	logger.Info("no items above threshold, lowering it",
		"side", string(side), "threshold", th.Primary, "fallback", th.Fallback)

	limit := max(tuning.FallbackMaxResults, 1)
	out := filter(unique, th.Fallback, limit)
	if len(out) == 0 {
		out = slices.Clone(unique[:min(len(unique), limit)])
	}
	metrics.ItemsSelected.WithLabelValues(string(side), "fallback").Add(float64(len(out)))
	return out
}

// SortByScore orders items by descending score, keeping input order on ties.
func SortByScore(items []news.ScoredItem) {
	slices.SortStableFunc(items, func(a, b news.ScoredItem) int {
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		}
		return 0
	})
}

// Dedup keeps the first item of every duplicate set. Input is expected to be
// sorted best first, so the highest scored member wins. An item is a
// duplicate when its key was seen, or when one of its title keywords longer
// than keywordMin runes was registered by an item kept earlier.
func Dedup(items []news.ScoredItem, signatureRunes, keywordMin int) []news.ScoredItem {
	keys := make(map[string]struct{}, len(items))
	keywords := make(map[string]struct{})
	out := make([]news.ScoredItem, 0, len(items))

	for _, item := range items {
		key := Key(item.Title, item.Description, signatureRunes)
		if _, dup := keys[key]; dup {
			continue
		}
		words := Keywords(item.Title)
		if sharesKeyword(words, keywords, keywordMin) {
			continue
		}

		out = append(out, item)
		keys[key] = struct{}{}
		for _, w := range words {
			if utf8.RuneCountInString(w) > keywordMin {
				keywords[w] = struct{}{}
			}
		}
	}
	return out
}

func sharesKeyword(words []string, registered map[string]struct{}, keywordMin int) bool {
	for _, w := range words {
		if utf8.RuneCountInString(w) <= keywordMin {
			continue
		}
		if _, ok := registered[w]; ok {
			return true
		}
	}
	return false
}

func filter(items []news.ScoredItem, threshold float64, limit int) []news.ScoredItem {
	var out []news.ScoredItem
	for _, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		if item.RelevanceScore >= threshold {
			out = append(out, item)
		}
	}
	return out
}
