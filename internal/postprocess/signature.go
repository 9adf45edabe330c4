package postprocess

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var parenRe = regexp.MustCompile(`\(.*?\)`)

// Korean stopwords: particles, conjunctions and common verb endings.
var stopwords = map[string]struct{}{
	"이": {}, "그": {}, "저": {}, "것": {}, "의": {}, "가": {}, "을": {}, "를": {}, "에": {},
	"에서": {}, "으로": {}, "와": {}, "과": {}, "이나": {}, "거나": {}, "또는": {}, "및": {},
	"에게": {}, "께": {}, "부터": {}, "까지": {}, "이다": {}, "있다": {}, "하다": {},
	"되다": {}, "않다": {}, "된다": {}, "한다": {},
}

func isHangul(r rune) bool {
	return r >= '가' && r <= '힣'
}

func isASCIIWord(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// clean drops parenthesised spans and every rune that is not an ASCII word
// character, a Hangul syllable or whitespace. Output is NFKC and lower case.
func clean(text string) string {
	text = parenRe.ReplaceAllString(norm.NFKC.String(text), "")
	return strings.Map(func(r rune) rune {
		switch {
		case isASCIIWord(r), isHangul(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		}
		return -1
	}, text)
}

// Signature is the normalized identity of a title or description.
func Signature(text string) string {
	return strings.Join(strings.Fields(clean(text)), "")
}

func prefix(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Key combines title and description signatures, n runes of each.
func Key(title, description string, n int) string {
	key := prefix(Signature(title), n)
	if desc := prefix(Signature(description), n); desc != "" {
		key += "_" + desc
	}
	return key
}

// Keywords returns the distinct title words used for fuzzy dedup: Hangul
// runs of two or more syllables and Latin runs of three or more letters,
// minus stopwords.
func Keywords(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(w string) {
		if _, stop := stopwords[w]; stop {
			return
		}
		if _, dup := seen[w]; dup {
			return
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}

	for _, tok := range strings.Fields(clean(text)) {
		for _, w := range runs(tok, isHangul, 2) {
			add(w)
		}
		for _, w := range runs(tok, func(r rune) bool { return r >= 'a' && r <= 'z' }, 3) {
			add(w)
		}
	}
	return out
}

// runs returns maximal runs of runes matching in, at least min runes long.
func runs(s string, in func(rune) bool, min int) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) >= min {
			out = append(out, string(cur))
		}
		cur = cur[:0]
	}
	for _, r := range s {
		if in(r) {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return out
}
