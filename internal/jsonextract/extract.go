// Package jsonextract pulls a JSON value out of free-form model output.
//
// Models wrap JSON in prose, markdown fences or both, so extraction is best
// effort: a Parsed result is only a candidate and callers must still decode
// it and handle failure.
package jsonextract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNotFound is returned by Decode when no JSON candidate exists.
var ErrNotFound = errors.New("no json found in text")

// Result is either Parsed (candidate text available) or NotFound.
type Result struct {
	text  string
	found bool
}

// NotFound is the empty Result.
var NotFound = Result{}

// Parsed builds a Result holding a candidate.
func Parsed(text string) Result {
	return Result{text: text, found: true}
}

// Found reports whether a candidate was extracted.
func (r Result) Found() bool { return r.found }

// Text returns the candidate, or "" for NotFound.
func (r Result) Text() string { return r.text }

var (
	fenceRe    = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	fallbackRe = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// Extract finds the first JSON object or array in text, preferring spans
// that hold an object over bare arrays such as an echoed "[0]".
//
// Order: strip code fences; take the whole text if it already looks like an
// array; otherwise scan for balanced, syntactically valid bracket/brace
// spans; finally fall back to a greedy regex match.
func Extract(text string) Result {
	cands := Candidates(text)
	if len(cands) == 0 {
		return NotFound
	}
	for _, c := range cands {
		if strings.Contains(c, "{") {
			return Parsed(c)
		}
	}
	return Parsed(cands[0])
}

// Candidates returns every JSON candidate in text, in the order they appear.
func Candidates(text string) []string {
	trimmed := strings.TrimSpace(stripFences(text))
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") && json.Valid([]byte(trimmed)) {
		return []string{trimmed}
	}

	var out []string
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '{' && trimmed[i] != '[' {
			continue
		}
		end := matchBalanced(trimmed, i)
		if end < 0 {
			continue
		}
		if candidate := trimmed[i : end+1]; json.Valid([]byte(candidate)) {
			out = append(out, candidate)
			i = end
		}
	}
	if len(out) > 0 {
		return out
	}

	if m := fallbackRe.FindString(trimmed); m != "" {
		return []string{m}
	}
	return nil
}

// Decode unmarshals the first candidate that fits v. When none fits, the
// error of the preferred candidate is returned.
func Decode(text string, v any) error {
	cands := Candidates(text)
	if len(cands) == 0 {
		return ErrNotFound
	}
	preferred := Extract(text).Text()
	var firstErr error
	for _, c := range cands {
		err := json.Unmarshal([]byte(c), v)
		if err == nil {
			return nil
		}
		if firstErr == nil || c == preferred {
			firstErr = err
		}
	}
	return firstErr
}

func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.ReplaceAll(text, "```", "")
}

// matchBalanced returns the index closing the bracket at start, skipping
// brackets inside JSON strings, or -1.
func matchBalanced(s string, start int) int {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return -1
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
