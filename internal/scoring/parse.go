package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/deusflow/newsletter/internal/jsonextract"
	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/news"
)

// flexNumber accepts a JSON number or a numeric string.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// Left unset; the caller decides what a missing value means.
		return nil
	}
	n.value, n.set = v, true
	return nil
}

type scoreEntry struct {
	ID              flexNumber `json:"id"`
	RelevanceScore  flexNumber `json:"relevanceScore"`
	GroupID         string     `json:"groupId"`
	RelevanceReason string     `json:"relevanceReason"`
	Category        string     `json:"category"`
}

func defaultGroupID(start, i int) string {
	return fmt.Sprintf("unique_batch%d_%d", start, i)
}

// parseBatch maps model output onto the batch. Every item must get an entry
// with a numeric score, otherwise the response is malformed.
func parseBatch(text string, start int, batch []news.Item, side news.Side) ([]news.ScoredItem, error) {
	var entries []scoreEntry
	if err := jsonextract.Decode(text, &entries); err != nil {
		if errors.Is(err, jsonextract.ErrNotFound) {
			return nil, llm.Malformed("no json in scoring response")
		}
		return nil, llm.Malformed("scoring response is not an array: %v", err)
	}

	byID := make(map[int]scoreEntry, len(entries))
	for _, e := range entries {
		if !e.ID.set || e.ID.value != math.Trunc(e.ID.value) {
			continue
		}
		id := int(e.ID.value)
		if _, dup := byID[id]; !dup {
			byID[id] = e
		}
	}

	out := make([]news.ScoredItem, len(batch))
	for i, item := range batch {
		id := start + i
		e, ok := byID[id]
		if !ok {
			return nil, llm.Malformed("no entry for id %d", id)
		}
		if !e.RelevanceScore.set {
			return nil, llm.Malformed("no numeric score for id %d", id)
		}

		group := strings.TrimSpace(e.GroupID)
		if group == "" {
			group = defaultGroupID(start, i)
		}

		out[i] = news.ScoredItem{
			Item:            item,
			RelevanceScore:  news.ClampScore(e.RelevanceScore.value),
			GroupID:         group,
			RelevanceReason: strings.TrimSpace(e.RelevanceReason),
			Category:        news.ParseCategory(e.Category),
			Origin:          side,
		}
	}
	return out, nil
}
