// Package quality implements the deterministic checks applied to model-rewritten
// CV bullets: length and sentence limits, fabrication detection and style
// normalization. Every function here is pure and safe for concurrent use.
package quality

import (
	"strings"
	"unicode/utf16"
)

const (
	// MaxBulletWords is the maximum number of whitespace-separated words in a bullet
	MaxBulletWords = 28
	// MaxBulletChars is the maximum bullet length in UTF-16 code units
	MaxBulletChars = 220
)

// isSpace reports whether r is whitespace under the same definition the
// editor uses on the client (ECMAScript \s), so word counts agree on both sides.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return r >= 0x2000 && r <= 0x200a
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// WordCount returns the number of non-empty whitespace-separated tokens
func WordCount(s string) int {
	return len(strings.FieldsFunc(s, isSpace))
}

// CharLength returns the length of s in UTF-16 code units. Characters outside
// the Basic Multilingual Plane count twice.
func CharLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// WithinLimits reports whether s fits the bullet word and length limits
func WithinLimits(s string) bool {
	return CharLength(s) <= MaxBulletChars && WordCount(s) <= MaxBulletWords
}

// IsSingleSentence reports whether s contains at most one sentence terminator.
// Abbreviations such as "e.g." count as terminators.
func IsSingleSentence(s string) bool {
	n := 0
	for _, r := range s {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	return n <= 1
}

// ChangedMeaning reports whether after differs from before once case and
// surrounding whitespace are ignored.
func ChangedMeaning(before, after string) bool {
	return lower(Trim(before)) != lower(Trim(after))
}

// lower lowercases s. U+0130 becomes "i" followed by a combining dot so
// that token boundaries match the client's lowercasing.
func lower(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "\u0130", "i\u0307"))
}

// TruncateUnits shortens s to at most limit UTF-16 code units. A character
// that would straddle the limit is dropped whole.
func TruncateUnits(s string, limit int) string {
	n := 0
	for i, r := range s {
		l := utf16.RuneLen(r)
		if l < 0 {
			l = 1
		}
		if n+l > limit {
			return s[:i]
		}
		n += l
	}
	return s
}
