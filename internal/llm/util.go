// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("(?i)```$")
)

// ForceJSONObject coerces a model reply into the text of a single JSON
// object. LLMs often wrap JSON in ```json ... ``` blocks or add a preamble
// even in JSON mode, so fences are removed and the result is cut to the span
// between the first '{' and the last '}'. The output may still be invalid
// JSON; callers must parse it.
func ForceJSONObject(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first == -1 || last == -1 {
		return text
	}
	if last < first {
		return ""
	}
	return text[first : last+1]
}
