package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsletter/internal/config"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/news"
)

func foreignItems(n int) []news.ScoredItem {
	out := make([]news.ScoredItem, n)
	for i := range out {
		out[i] = news.ScoredItem{
			Item:           news.Item{Title: fmt.Sprintf("Title %d", i), Description: fmt.Sprintf("Body %d", i), IsForeign: true},
			RelevanceScore: 8,
			Origin:         news.Foreign,
		}
	}
	return out
}

type recorder struct {
	calls int
	waits []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestTranslate_LimitsAndReplaces(t *testing.T) {
	rec := &recorder{}
	c := llm.CompleterFunc(func(_ context.Context, prompt, _, _ string) (string, error) {
		rec.calls++
		if strings.Contains(prompt, `"Title 2"`) {
			return "", &llm.StatusError{Code: 500}
		}
		if strings.Contains(prompt, `"Title 3"`) {
			return `{"translatedTitle": "", "summary": ""}`, nil
		}
		return "```json\n{\"translatedTitle\": \"번역 제목\", \"summary\": \"요약입니다. (Note: machine translation)\"}\n```", nil
	})

	tr := New(c, "m", config.DefaultTuning(), nil)
	tr.Sleep = rec.sleep

	got := tr.Translate(context.Background(), foreignItems(7), "key")
	require.Len(t, got, 5)
	assert.Equal(t, 5, rec.calls)
	assert.Len(t, rec.waits, 4)
	assert.Equal(t, time.Second, rec.waits[0])

	assert.Equal(t, "번역 제목", got[0].Title)
	assert.Equal(t, "요약입니다.", got[0].Summary)

	// Failure keeps the item unchanged.
	assert.Equal(t, "Title 2", got[2].Title)
	assert.Empty(t, got[2].Summary)

	// Empty fields fall back to the original.
	assert.Equal(t, "Title 3", got[3].Title)
	assert.Equal(t, "Body 3", got[3].Summary)
}

func TestTranslate_NoRetryAndMemo(t *testing.T) {
	calls := 0
	c := llm.CompleterFunc(func(context.Context, string, string, string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("503 unavailable")
		}
		return `{"translatedTitle": "제목", "summary": "요약"}`, nil
	})

	tr := New(c, "m", config.DefaultTuning(), nil)
	rec := &recorder{}
	tr.Sleep = rec.sleep

	item := foreignItems(1)
	got := tr.Translate(context.Background(), item, "key")
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Title 0", got[0].Title)

	got = tr.Translate(context.Background(), item, "key")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "제목", got[0].Title)

	// Same article again is served from the memo.
	got = tr.Translate(context.Background(), item, "key")
	assert.Equal(t, 2, calls)
	assert.Equal(t, "요약", got[0].Summary)
	assert.Empty(t, rec.waits)
}

func TestSanitizeAIText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"inline parenthesized", "첫 문장. (Note: This is a machine translation.) 둘째 문장.", "첫 문장. 둘째 문장."},
		{"full line note", "Note: machine translated.\n본문 내용", "본문 내용"},
		{"bracketed", "[Note: Machine translation] 테스트 문장.", "테스트 문장."},
		{"plain text untouched", "배터리 소재 가격 상승", "배터리 소재 가격 상승"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeAIText(tt.in))
		})
	}
}
