package scoring

import (
	"math/rand"

	"github.com/deusflow/newsletter/internal/news"
)

const noAnalysisReason = "no analysis available"

// FallbackScores produces the score given to items whose batch could not be
// scored.
type FallbackScores interface {
	Next() float64
}

// RandomScores draws uniformly from [Min, Max].
type RandomScores struct {
	Min, Max float64
}

func (r RandomScores) Next() float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rand.Float64()*(r.Max-r.Min)
}

// FixedScore always returns the same value.
type FixedScore float64

func (f FixedScore) Next() float64 { return float64(f) }

func (s *Scorer) defaults(start int, batch []news.Item, side news.Side) []news.ScoredItem {
	out := make([]news.ScoredItem, len(batch))
	for i, item := range batch {
		out[i] = news.ScoredItem{
			Item:            item,
			RelevanceScore:  news.ClampScore(s.Fallback.Next()),
			GroupID:         defaultGroupID(start, i),
			RelevanceReason: noAnalysisReason,
			Category:        news.CategoryPlaceholder,
			Origin:          side,
		}
	}
	return out
}
