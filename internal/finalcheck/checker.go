// Package finalcheck asks the model to group near-duplicate stories in an
// assembled list and keeps one representative per group.
package finalcheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/jsonextract"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/logger"
	"github.com/deusflow/newsletter/internal/metrics"
	"github.com/deusflow/newsletter/internal/news"
	"github.com/deusflow/newsletter/internal/retry"
)

// ErrCheckFailed is returned when the model could not be reached.
var ErrCheckFailed = errors.New("final duplicate check failed")

type Checker struct {
	llm    llm.Completer
	model  string
	tuning config.Tuning

	Sleep retry.Sleeper
}

func New(c llm.Completer, model string, tuning config.Tuning) *Checker {
	return &Checker{llm: c, model: model, tuning: tuning, Sleep: retry.Sleep}
}

type group struct {
	Group   any `json:"group"`
	NewsIDs any `json:"newsIds"`
	Reason  any `json:"reason"`
}

// Check returns list without the non-representative members of duplicate
// groups, in input order. An answer of the wrong shape leaves list as is.
func (c *Checker) Check(ctx context.Context, list []news.ScoredItem, label, apiKey string) ([]news.ScoredItem, error) {
	if len(list) <= 1 {
		return list, nil
	}
	log := logger.With("label", label, "items", len(list))

	prompt := llm.Truncate(buildPrompt(list, label, c.tuning.SummaryPreview), c.tuning.PromptMaxChars)

	var text string
	err := retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: c.tuning.MaxAttempts,
		Delay:       c.tuning.BackoffBase,
		Backoff:     true,
		Retryable:   llm.IsRetryable,
		Sleep:       c.Sleep,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn("duplicate check call failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		},
	}, func() error {
		began := time.Now()
		out, err := c.llm.Complete(ctx, prompt, apiKey, c.model)
		metrics.ObserveLLM("finalcheck", time.Since(began).Seconds(), err)
		if err != nil {
			return llm.Classify(err)
		}
		text = out
		return nil
	})
	if err != nil {
		return list, fmt.Errorf("%w: %s: %w", ErrCheckFailed, label, err)
	}

	groups, ok := parseGroups(text)
	if !ok {
		log.Warn("duplicate check answer has unexpected shape, keeping list")
		return list, nil
	}

	out := selectRepresentatives(list, groups)
	if removed := len(list) - len(out); removed > 0 {
		log.Info("final duplicate check removed items", "removed", removed)
		metrics.DuplicatesRemoved.WithLabelValues("final").Add(float64(removed))
		metrics.Global.AddDuplicatesFiltered(removed)
	}
	return out, nil
}

// CheckAll checks both sides of every digest, in order. A side whose check
// fails keeps its pre-check list.
func (c *Checker) CheckAll(ctx context.Context, digests []news.TopicDigest, apiKey string) []news.TopicDigest {
	out := make([]news.TopicDigest, len(digests))
	for i, d := range digests {
		out[i] = d
		out[i].Domestic = c.checkSide(ctx, d.Domestic, d.Topic, news.Domestic, apiKey)
		out[i].Foreign = c.checkSide(ctx, d.Foreign, d.Topic, news.Foreign, apiKey)
	}
	return out
}

func (c *Checker) checkSide(ctx context.Context, list []news.ScoredItem, topic string, side news.Side, apiKey string) []news.ScoredItem {
	if len(list) <= 1 {
		return list
	}
	checked, err := c.Check(ctx, list, topic+" - "+side.Label(), apiKey)
	if err != nil {
		logger.Error("final duplicate check failed, keeping list", "topic", topic, "side", string(side), "error", err)
		return list
	}
	return checked
}

func buildPrompt(list []news.ScoredItem, label string, preview int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Below is a list of news in the %q category. Group articles whose content is duplicated or very similar. Each group holds one or more news IDs.\n\n", label)
	b.WriteString("Put independent, unique articles into their own group. Articles with slightly different titles but very similar content belong to the same group.\n\n")
	b.WriteString("News list:\n")

	for i, item := range list {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "ID: %d\nTitle: %s\nSummary: %s\nScore: %s\n",
			i, item.Title, truncatePreview(item.SummaryOrDescription(), preview),
			strconv.FormatFloat(item.RelevanceScore, 'f', -1, 64))
	}

	b.WriteString(`
Respond ONLY in this JSON format:
[
  {"group": 1, "newsIds": [0, 2, 5], "reason": "same exhibition announcement"},
  {"group": 2, "newsIds": [1], "reason": "independent article"}
]

Return only the JSON, without explanations or comments.`)
	return b.String()
}

func truncatePreview(s string, n int) string {
	if n <= 0 {
		return s
	}
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

// parseGroups validates the answer. ok is false for any shape mismatch.
func parseGroups(text string) ([][]int, bool) {
	var raw []group
	if err := jsonextract.Decode(text, &raw); err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}

	groups := make([][]int, 0, len(raw))
	for _, g := range raw {
		ids, isArray := g.NewsIDs.([]any)
		if !truthy(g.Group) || !isArray || !truthy(g.Reason) {
			return nil, false
		}
		var members []int
		for _, v := range ids {
			if id, ok := toIndex(v); ok {
				members = append(members, id)
			}
		}
		groups = append(groups, members)
	}
	return groups, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return strings.TrimSpace(t) != ""
	}
	return true
}

func toIndex(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return int(t), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// selectRepresentatives keeps the best scored member of each group (the
// earliest on ties) plus every item no group mentions.
func selectRepresentatives(list []news.ScoredItem, groups [][]int) []news.ScoredItem {
	claimed := make([]bool, len(list))
	keep := make([]bool, len(list))

	for _, members := range groups {
		best := -1
		for _, id := range members {
			if id < 0 || id >= len(list) || claimed[id] {
				continue
			}
			claimed[id] = true
			if best < 0 || list[id].RelevanceScore > list[best].RelevanceScore ||
				(list[id].RelevanceScore == list[best].RelevanceScore && id < best) {
				best = id
			}
		}
		if best >= 0 {
			keep[best] = true
		}
	}

	out := make([]news.ScoredItem, 0, len(list))
	for i, item := range list {
		if keep[i] || !claimed[i] {
			out = append(out, item)
		}
	}
	return out
}
