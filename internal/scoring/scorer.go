// Package scoring rates fetched articles for topic relevance with a language
// model, in small batches, and guarantees that every item leaves with a score.
package scoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
	"github.com/deusflow/newsletter/internal/retry"
)

// Request is one topic/side worth of items to score.
type Request struct {
	Items           []news.Item
	Topic           string
	RelatedConcepts string
	APIKey          string
	Side            news.Side
}

type Scorer struct {
	llm    llm.Completer
	model  string
	tuning config.Tuning

	// Fallback scores items of batches that could not be scored.
	Fallback FallbackScores
	// Sleep is used for backoff and the pause between batches.
	Sleep retry.Sleeper
}

func New(c llm.Completer, model string, tuning config.Tuning) *Scorer {
	return &Scorer{
		llm:      c,
		model:    model,
		tuning:   tuning,
		Fallback: RandomScores{Min: tuning.FallbackScoreMin, Max: tuning.FallbackScoreMax},
		Sleep:    retry.Sleep,
	}
}

// Score returns one ScoredItem per accepted input item, in input order.
// Items beyond BatchSize*MaxBatches are dropped. It never fails: batches that
// cannot be scored get fallback scores.
func (s *Scorer) Score(ctx context.Context, req Request) []news.ScoredItem {
	if len(req.Items) == 0 {
		return nil
	}
	log := logger.With("topic", req.Topic, "side", string(req.Side))

	size := s.tuning.BatchSize
	if size < 1 {
		size = 1
	}
	items := req.Items
	if limit := size * s.tuning.MaxBatches; s.tuning.MaxBatches > 0 && len(items) > limit {
		log.Debug("dropping items beyond batch cap", "received", len(items), "kept", limit)
		items = items[:limit]
	}

	out := make([]news.ScoredItem, 0, len(items))
	for start, batchIndex := 0, 0; start < len(items); start, batchIndex = start+size, batchIndex+1 {
		if batchIndex > 0 && s.tuning.InterBatchDelay > 0 {
			// A cancelled context shows up in the next call and ends in defaults.
			_ = s.Sleep(ctx, s.tuning.InterBatchDelay)
		}
		end := min(start+size, len(items))
		out = append(out, s.scoreBatch(ctx, log.With("batch", batchIndex), req, start, items[start:end])...)
	}

	metrics.Global.AddScored(len(out))
	return out
}

func (s *Scorer) scoreBatch(ctx context.Context, log *slog.Logger, req Request, start int, batch []news.Item) []news.ScoredItem {
	prompt := buildPrompt(req, start, batch, s.tuning.PromptMaxChars)

	var scored []news.ScoredItem
	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: s.tuning.MaxAttempts,
		Delay:       s.tuning.BackoffBase,
		Backoff:     true,
		Retryable:   llm.IsRetryable,
		Sleep:       s.Sleep,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn("scoring attempt failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		},
	}, func() error {
		began := time.Now()
		text, err := s.llm.Complete(ctx, prompt, req.APIKey, s.model)
		metrics.ObserveLLM("score", time.Since(began).Seconds(), err)
		if err != nil {
			return llm.Classify(err)
		}
		res, err := parseBatch(text, start, batch, req.Side)
		if err != nil {
			return err
		}
		scored = res
		return nil
	})

	if err != nil {
		log.Warn("scoring batch failed, using fallback scores", "items", len(batch), "error", err)
		metrics.BatchesScored.WithLabelValues(string(req.Side), metrics.OutcomeDefaulted).Inc()
		metrics.Global.IncrementBatchesDefaulted()
		return s.defaults(start, batch, req.Side)
	}

	log.Debug("batch scored", "items", len(scored))
	metrics.BatchesScored.WithLabelValues(string(req.Side), metrics.OutcomeOK).Inc()
	return scored
}
