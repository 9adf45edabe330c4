// Package llm defines the single text-completion contract the pipeline uses
// and the backends that implement it.
package llm

import (
	"context"
	"unicode/utf8"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = "gemini-2.0-flash"

// Completer sends one prompt and returns the raw model text. The text may
// embed JSON inside prose or code fences. Failures are classified with the
// sentinels in errors.go.
type Completer interface {
	Complete(ctx context.Context, prompt, apiKey, model string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt, apiKey, model string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt, apiKey, model string) (string, error) {
	return f(ctx, prompt, apiKey, model)
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
