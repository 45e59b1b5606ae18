// Package diff computes word-level differences between two versions of a
// bullet for display. Nothing in the rewrite pipeline depends on its output.
package diff

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// PartType classifies a diff part
type PartType string

// Part types
const (
	Equal  PartType = "equal"
	Insert PartType = "insert"
	Delete PartType = "delete"
)

// Part is a run of tokens with the same classification
type Part struct {
	Type PartType `json:"type"`
	Text string   `json:"text"`
}

// tokenPattern keeps whitespace runs as their own tokens so spacing survives
var tokenPattern = regexp.MustCompile(`\S+|\s+`)

const (
	privateUseStart = 0xE000
	privateUseEnd   = 0xF8FF
	supplementaryPU = 0xF0000
)

// tokenTable maps each distinct token to a private-use rune so the
// character-level diff engine can run over words.
type tokenTable struct {
	runes  map[string]rune
	tokens map[rune]string
	next   rune
}

func newTokenTable() *tokenTable {
	return &tokenTable{
		runes:  make(map[string]rune),
		tokens: make(map[rune]string),
		next:   privateUseStart,
	}
}

func (t *tokenTable) encode(text string) []rune {
	toks := tokenPattern.FindAllString(text, -1)
	out := make([]rune, 0, len(toks))
	for _, tok := range toks {
		r, ok := t.runes[tok]
		if !ok {
			r = t.next
			t.runes[tok] = r
			t.tokens[r] = tok
			t.next++
			if t.next == privateUseEnd+1 {
				t.next = supplementaryPU
			}
		}
		out = append(out, r)
	}
	return out
}

func (t *tokenTable) decode(encoded string) string {
	var sb strings.Builder
	for _, r := range encoded {
		sb.WriteString(t.tokens[r])
	}
	return sb.String()
}

// Words returns the word-level diff from before to after. Concatenating the
// non-delete parts yields after; concatenating the non-insert parts yields
// before.
func Words(before, after string) []Part {
	table := newTokenTable()
	a := table.encode(before)
	b := table.encode(after)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	parts := make([]Part, 0, len(diffs))
	for _, d := range diffs {
		text := table.decode(d.Text)
		if text == "" {
			continue
		}
		parts = append(parts, Part{Type: partType(d.Type), Text: text})
	}
	return parts
}

func partType(op diffmatchpatch.Operation) PartType {
	switch op {
	case diffmatchpatch.DiffInsert:
		return Insert
	case diffmatchpatch.DiffDelete:
		return Delete
	default:
		return Equal
	}
}

// Apply concatenates the parts visible on one side of the diff
func Apply(parts []Part, side PartType) string {
	var sb strings.Builder
	for _, p := range parts {
		if p.Type == Equal || p.Type == side {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
