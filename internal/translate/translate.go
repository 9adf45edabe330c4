// Package translate turns foreign articles into target-language titles and
// short summaries.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deusflow/newsletter/internal/cache"
	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/jsonextract"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
	"github.com/deusflow/newsletter/internal/retry"
)

// Translation is one memoized model answer.
type Translation struct {
	Title   string `json:"translatedTitle"`
	Summary string `json:"summary"`
}

type Translator struct {
	llm    llm.Completer
	model  string
	tuning config.Tuning
	memo   *cache.Cache[Translation]

	Sleep retry.Sleeper
}

// New builds a Translator. memo may be nil.
func New(c llm.Completer, model string, tuning config.Tuning, memo *cache.Cache[Translation]) *Translator {
	if memo == nil {
		memo = cache.New[Translation]()
	}
	return &Translator{
		llm:    c,
		model:  model,
		tuning: tuning,
		memo:   memo,
		Sleep:  retry.Sleep,
	}
}

// Translate processes at most TranslateLimit items, in order, and returns
// only those. Failed items come back unchanged.
func (t *Translator) Translate(ctx context.Context, items []news.ScoredItem, apiKey string) []news.ScoredItem {
	if len(items) == 0 {
		return nil
	}
	if t.tuning.TranslateLimit > 0 && len(items) > t.tuning.TranslateLimit {
		items = items[:t.tuning.TranslateLimit]
	}

	out := make([]news.ScoredItem, 0, len(items))
	called := false
	for _, item := range items {
		key := cache.GenerateKey(item.Title, item.Description)
		if tr, ok := t.memo.Get(key); ok {
			metrics.Translations.WithLabelValues(metrics.OutcomeCached).Inc()
			out = append(out, apply(item, tr))
			continue
		}

		if called && t.tuning.TranslateDelay > 0 {
			_ = t.Sleep(ctx, t.tuning.TranslateDelay)
		}
		called = true

		tr, err := t.translateOne(ctx, item, apiKey)
		if err != nil {
			logger.Warn("translation failed, keeping original", "title", llm.Truncate(item.Title, 60), "error", err)
			metrics.Translations.WithLabelValues(metrics.OutcomeFailed).Inc()
			metrics.Global.IncrementFailedTranslations()
			out = append(out, item)
			continue
		}

		t.memo.Set(key, tr, t.tuning.TranslationTTL)
		metrics.Translations.WithLabelValues(metrics.OutcomeOK).Inc()
		metrics.Global.IncrementTranslations()
		out = append(out, apply(item, tr))
	}
	return out
}

func (t *Translator) translateOne(ctx context.Context, item news.ScoredItem, apiKey string) (Translation, error) {
	prompt := buildPrompt(item, t.tuning.TargetLanguage)

	began := time.Now()
	text, err := t.llm.Complete(ctx, llm.Truncate(prompt, t.tuning.PromptMaxChars), apiKey, t.model)
	metrics.ObserveLLM("translate", time.Since(began).Seconds(), err)
	if err != nil {
		return Translation{}, llm.Classify(err)
	}

	var tr Translation
	if err := jsonextract.Decode(text, &tr); err != nil {
		return Translation{}, llm.Malformed("translation response: %v", err)
	}
	tr.Title = SanitizeAIText(tr.Title)
	tr.Summary = SanitizeAIText(tr.Summary)
	return tr, nil
}

func apply(item news.ScoredItem, tr Translation) news.ScoredItem {
	if tr.Title != "" {
		item.Title = tr.Title
	}
	if tr.Summary != "" {
		item.Summary = tr.Summary
	} else {
		item.Summary = item.Description
	}
	return item
}

func buildPrompt(item news.ScoredItem, language string) string {
	if language == "" {
		language = "Korean"
	}
	desc := strings.TrimSpace(item.Description)
	if desc == "" {
		desc = "no content"
	}
	return fmt.Sprintf(`Translate the following news article into %[1]s and summarize it in 2-3 sentences.

Original title: %[2]q
Original content: %[3]q

Respond in this JSON format:
{
  "translatedTitle": "title translated into %[1]s",
  "summary": "2-3 sentence summary in %[1]s"
}

Return only the JSON.`, language, item.Title, desc)
}
