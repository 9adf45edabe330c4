package scoring

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/news"
	"github.com/deusflow/newsletter/internal/retry"
)

type fakeCompleter struct {
	prompts []string
	reply   func(call int, prompt string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, _, _ string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply(len(f.prompts), prompt)
}

func items(n int) []news.Item {
	out := make([]news.Item, n)
	for i := range out {
		out[i] = news.Item{Title: fmt.Sprintf("article %d", i), Link: fmt.Sprintf("https://example.com/%d", i)}
	}
	return out
}

func newTestScorer(c llm.Completer) *Scorer {
	s := New(c, "test-model", config.DefaultTuning())
	s.Sleep = retry.NoSleep
	return s
}

// echoScores answers every prompt with a score for each global id it lists.
func echoScores(score string) func(int, string) (string, error) {
	return func(_ int, prompt string) (string, error) {
		var parts []string
		for id := 0; id < 100; id++ {
			if strings.Contains(prompt, fmt.Sprintf("[%d] Title:", id)) {
				parts = append(parts, fmt.Sprintf(`{"id": %d, "relevanceScore": %s, "groupId": "g%d", "relevanceReason": "ok", "category": "policy"}`, id, score, id))
			}
		}
		return "Here you go:\n```json\n[" + strings.Join(parts, ",") + "]\n```", nil
	}
}

func TestScore_ParsesBatchResponse(t *testing.T) {
	c := &fakeCompleter{reply: func(int, string) (string, error) {
		return `[
			{"id": "0", "relevanceScore": "8.5", "groupId": "A", "relevanceReason": "direct", "category": "Research"},
			{"id": 1, "relevanceScore": 14, "category": "unknown"},
			{"id": 2, "relevanceScore": -3, "groupId": "C", "relevanceReason": "stock", "category": "market"}
		]`, nil
	}}

	got := newTestScorer(c).Score(context.Background(), Request{Items: items(3), Topic: "battery", Side: news.Domestic})
	require.Len(t, got, 3)

	assert.Equal(t, 8.5, got[0].RelevanceScore)
	assert.Equal(t, "A", got[0].GroupID)
	assert.Equal(t, news.CategoryResearch, got[0].Category)
	assert.Equal(t, news.Domestic, got[0].Origin)

	assert.Equal(t, 10.0, got[1].RelevanceScore)
	assert.Equal(t, "unique_batch0_1", got[1].GroupID)
	assert.Equal(t, news.CategoryPlaceholder, got[1].Category)

	assert.Equal(t, 1.0, got[2].RelevanceScore)
	assert.Len(t, c.prompts, 1)
}

func TestScore_RateLimitedThreeTimesUsesDefaults(t *testing.T) {
	c := &fakeCompleter{reply: func(int, string) (string, error) {
		return "", &llm.StatusError{Code: 429, Message: "quota"}
	}}
	s := New(c, "m", config.DefaultTuning())

	var waits []time.Duration
	s.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	got := s.Score(context.Background(), Request{Items: items(5), Topic: "t", Side: news.Foreign})

	require.Len(t, got, 5)
	assert.Len(t, c.prompts, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	for i, it := range got {
		assert.GreaterOrEqual(t, it.RelevanceScore, 7.0)
		assert.LessOrEqual(t, it.RelevanceScore, 9.0)
		assert.Equal(t, news.CategoryPlaceholder, it.Category)
		assert.Equal(t, noAnalysisReason, it.RelevanceReason)
		assert.Equal(t, fmt.Sprintf("unique_batch0_%d", i), it.GroupID)
		assert.Equal(t, news.Foreign, it.Origin)
	}
}

func TestScore_ProseEchoingIDsStillParses(t *testing.T) {
	c := &fakeCompleter{reply: func(int, string) (string, error) {
		return "Article [0] is the most relevant.\n" +
			`[{"id": 0, "relevanceScore": 3, "groupId": "A", "relevanceReason": "weak", "category": "market"},` +
			`{"id": 1, "relevanceScore": 2, "groupId": "B", "relevanceReason": "off topic", "category": "policy"}]`, nil
	}}
	got := newTestScorer(c).Score(context.Background(), Request{Items: items(2), Topic: "t", Side: news.Domestic})

	require.Len(t, got, 2)
	assert.Len(t, c.prompts, 1)
	assert.Equal(t, 3.0, got[0].RelevanceScore)
	assert.Equal(t, 2.0, got[1].RelevanceScore)
	assert.Equal(t, "weak", got[0].RelevanceReason)
}

func TestScore_PausesBetweenBatches(t *testing.T) {
	c := &fakeCompleter{reply: echoScores("8")}
	s := New(c, "m", config.DefaultTuning())

	var waits []time.Duration
	s.Sleep = func(_ context.Context, d time.Duration) error {
		// Every pause comes after a completed batch.
		assert.Len(t, c.prompts, len(waits)+1)
		waits = append(waits, d)
		return nil
	}

	got := s.Score(context.Background(), Request{Items: items(12), Topic: "t", Side: news.Domestic})

	require.Len(t, got, 12)
	assert.Len(t, c.prompts, 3)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 1500 * time.Millisecond}, waits)
}

func TestScore_InvalidJSONDefaultsAfterRetries(t *testing.T) {
	c := &fakeCompleter{reply: func(int, string) (string, error) {
		return "I cannot rate these articles.", nil
	}}
	s := newTestScorer(c)
	s.Fallback = FixedScore(8)

	got := s.Score(context.Background(), Request{Items: items(2), Topic: "t", Side: news.Domestic})
	require.Len(t, got, 2)
	assert.Len(t, c.prompts, 3)
	for _, it := range got {
		assert.Equal(t, 8.0, it.RelevanceScore)
	}
}

func TestScore_MissingEntryIsRetried(t *testing.T) {
	c := &fakeCompleter{reply: func(call int, prompt string) (string, error) {
		if call == 1 {
			return `[{"id": 0, "relevanceScore": 9}]`, nil
		}
		return echoScores("6")(call, prompt)
	}}

	got := newTestScorer(c).Score(context.Background(), Request{Items: items(2), Topic: "t", Side: news.Domestic})
	require.Len(t, got, 2)
	assert.Len(t, c.prompts, 2)
	assert.Equal(t, 6.0, got[0].RelevanceScore)
	assert.Equal(t, 6.0, got[1].RelevanceScore)
}

func TestScore_PermanentErrorIsNotRetried(t *testing.T) {
	c := &fakeCompleter{reply: func(int, string) (string, error) {
		return "", &llm.StatusError{Code: 400, Message: "bad request"}
	}}
	s := newTestScorer(c)
	s.Fallback = FixedScore(7.5)

	got := s.Score(context.Background(), Request{Items: items(4), Topic: "t", Side: news.Domestic})
	require.Len(t, got, 4)
	assert.Len(t, c.prompts, 1)
	assert.Equal(t, 7.5, got[3].RelevanceScore)
}

func TestScore_CapsAtMaxBatchesWithGlobalIDs(t *testing.T) {
	c := &fakeCompleter{reply: echoScores(`"7.5"`)}

	got := newTestScorer(c).Score(context.Background(), Request{Items: items(30), Topic: "t", Side: news.Domestic})
	require.Len(t, got, 25)
	assert.Len(t, c.prompts, 5)

	assert.Contains(t, c.prompts[1], "[5] Title:")
	assert.NotContains(t, c.prompts[1], "[0] Title:")
	assert.Equal(t, "g24", got[24].GroupID)
	assert.Equal(t, "article 24", got[24].Title)
	for _, it := range got {
		assert.Equal(t, 7.5, it.RelevanceScore)
	}
}

func TestScore_Empty(t *testing.T) {
	c := &fakeCompleter{reply: echoScores("5")}
	assert.Empty(t, newTestScorer(c).Score(context.Background(), Request{Topic: "t"}))
	assert.Empty(t, c.prompts)
}

func TestBuildPrompt(t *testing.T) {
	req := Request{Topic: "수소", RelatedConcepts: "연료전지, , 수전해 ,", Side: news.Foreign}
	p := buildPrompt(req, 5, []news.Item{{Title: "Hydrogen hub"}}, 20000)

	assert.Contains(t, p, "Related concepts: 연료전지, 수전해\n")
	assert.Contains(t, p, "When relevance is unclear give 7 or more")
	assert.Contains(t, p, `[5] Title: "Hydrogen hub"`)
	assert.Contains(t, p, `Content: "no content"`)

	short := buildPrompt(req, 0, items(5), 100)
	assert.Equal(t, 100, len([]rune(short)))
}
