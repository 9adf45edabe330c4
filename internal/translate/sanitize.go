package translate

import (
	"regexp"
	"strings"
)

var (
	parenNoteRe   = regexp.MustCompile(`(?i)\(\s*(?:note|disclaimer|translator'?s note)\s*:[^)]*\)`)
	bracketNoteRe = regexp.MustCompile(`(?i)\[\s*(?:note|disclaimer|translator'?s note)[^\]]*\]`)
	lineNoteRe    = regexp.MustCompile(`(?i)^\s*\**\s*(?:note|disclaimer|translator'?s note)\s*:`)
)

// SanitizeAIText strips machine-translation disclaimers the model sometimes
// adds, and collapses whitespace.
func SanitizeAIText(s string) string {
	s = parenNoteRe.ReplaceAllString(s, "")
	s = bracketNoteRe.ReplaceAllString(s, "")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		if lineNoteRe.MatchString(line) {
			continue
		}
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
