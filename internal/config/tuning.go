package config

import (
	"time"

	"github.com/deusflow/newsletter/internal/news"
)

// Thresholds holds the inclusion cut-offs for one side.
type Thresholds struct {
	Primary  float64
	Fallback float64
}

// Tuning is the fixed pipeline configuration. It is passed by value into
// each component and never mutated after Load.
type Tuning struct {
	BatchSize       int
	MaxBatches      int
	MaxAttempts     int
	BackoffBase     time.Duration // wait after attempt n is BackoffBase * 2^n
	InterBatchDelay time.Duration
	PromptMaxChars  int

	FallbackScoreMin float64
	FallbackScoreMax float64

	Domestic           Thresholds
	Foreign            Thresholds
	MaxResults         int
	FallbackMaxResults int
	SignatureRunes     int
	KeywordMinRunes    int // keywords longer than this are registered for dedup

	TranslateLimit int
	TranslateDelay time.Duration
	TargetLanguage string
	TranslationTTL time.Duration
	SummaryPreview int
}

// ThresholdsFor picks the cut-offs for a side.
func (t Tuning) ThresholdsFor(side news.Side) Thresholds {
	if side == news.Foreign {
		return t.Foreign
	}
	return t.Domestic
}

// DefaultTuning returns the production values.
func DefaultTuning() Tuning {
	return Tuning{
		BatchSize:       5,
		MaxBatches:      5,
		MaxAttempts:     3,
		BackoffBase:     time.Second,
		InterBatchDelay: 1500 * time.Millisecond,
		PromptMaxChars:  20000,

		FallbackScoreMin: 7.0,
		FallbackScoreMax: 9.0,

		Domestic:           Thresholds{Primary: 7.0, Fallback: 5.0},
		Foreign:            Thresholds{Primary: 7.0, Fallback: 5.0},
		MaxResults:         10,
		FallbackMaxResults: 3,
		SignatureRunes:     50,
		KeywordMinRunes:    5,

		TranslateLimit: 5,
		TranslateDelay: time.Second,
		TargetLanguage: "Korean",
		TranslationTTL: 24 * time.Hour,
		SummaryPreview: 150,
	}
}
