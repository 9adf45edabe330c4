package scoring

import (
	"fmt"
	"strings"

	"github.com/deusflow/newsletter/internal/llm"
	"github.com/deusflow/newsletter/internal/news"
)

// splitConcepts splits the comma separated related concepts, dropping blanks.
func splitConcepts(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func buildPrompt(req Request, start int, batch []news.Item, maxChars int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Below is a list of %s articles about the topic %q. Rate how relevant each article really is to this topic, judging meaning rather than keywords.\n\n", req.Side.Label(), req.Topic)
	b.WriteString("Rules:\n")
	b.WriteString("1. Give a high score to semantically related content even when the exact words are not used.\n")
	fmt.Fprintf(&b, "2. Articles covering a subtopic or related technology of %q are relevant.\n", req.Topic)
	b.WriteString("3. A keyword mention alone does not make an article relevant. Judge the actual content.\n")
	b.WriteString("4. Stock price news gets a low score.\n")

	if req.Side == news.Foreign {
		b.WriteString("5. These are foreign articles. Global market trends and overseas company activity count as important information.\n")
		fmt.Fprintf(&b, "6. Score high when an article relates to %q in a global context, even without a direct mention.\n", req.Topic)
		b.WriteString("7. Translation and cultural differences can blur the context. When relevance is unclear give 7 or more.\n")
	} else {
		fmt.Fprintf(&b, "5. Articles covering the domestic %q industry, policy or companies in concrete terms are relevant.\n", req.Topic)
		b.WriteString("6. Give 7 or more only to articles directly related to the topic with important content.\n")
		b.WriteString("7. Give 10 only to very important articles covering the core of the topic.\n")
	}

	if concepts := splitConcepts(req.RelatedConcepts); len(concepts) > 0 {
		fmt.Fprintf(&b, "\nRelated concepts: %s\n", strings.Join(concepts, ", "))
		b.WriteString("Articles mentioning or dealing with these concepts can be considered relevant.\n")
	}

	cats := make([]string, len(news.Categories))
	for i, c := range news.Categories {
		cats[i] = fmt.Sprintf("%q", string(c))
	}

	b.WriteString("\nScore every article from 1 to 10 and put articles about the same story into the same group.\n")
	b.WriteString("Respond ONLY with a JSON array in this format:\n")
	b.WriteString(`[
  {"id": 0, "relevanceScore": 8.5, "groupId": "A", "relevanceReason": "short reason", "category": "research"},
  {"id": 1, "relevanceScore": 5.2, "groupId": "B", "relevanceReason": "short reason", "category": "policy"}
]`)
	b.WriteString("\nDo not include any other text.\n")
	fmt.Fprintf(&b, "category must be one of: %s.\n", strings.Join(cats, ", "))

	b.WriteString("\nArticles:\n")
	for i, item := range batch {
		desc := item.Description
		if desc == "" {
			desc = "no content"
		}
		fmt.Fprintf(&b, "[%d] Title: %q\nContent: %q\n", start+i, item.Title, desc)
	}

	return llm.Truncate(b.String(), maxChars)
}
