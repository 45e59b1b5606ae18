package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/cv-assistant/internal/types"
)

// spaceClass is the regexp form of isSpace
const spaceClass = `[\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}]`

type verbSubstitution struct {
	weak   *regexp.Regexp
	strong string
}

func substitution(weak, strong string) verbSubstitution {
	return verbSubstitution{
		weak:   regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(weak) + `\b`),
		strong: strong,
	}
}

var (
	pronounEN = regexp.MustCompile(`(?i)^(?:I|We)` + spaceClass + `+`)
	pronounTR = regexp.MustCompile(`(?i)^(?:Ben|Biz)` + spaceClass + `+`)

	// Order matters: the first matching entry wins.
	weakVerbsEN = []verbSubstitution{
		substitution("Worked", "Built"),
		substitution("Was", "Led"),
		substitution("Did", "Completed"),
		substitution("Made", "Created"),
		substitution("Responsible", "Led"),
	}
	weakVerbsTR = []verbSubstitution{
		substitution("Çalıştım", "Geliştirdim"),
		substitution("Yaptım", "Gerçekleştirdim"),
		substitution("Sorumluydum", "Yönettim"),
	}
)

// StrongVerbs returns the replacement verbs used for locale
func StrongVerbs(locale types.Locale) []string {
	table := weakVerbsTR
	if locale == types.LocaleEN {
		table = weakVerbsEN
	}
	verbs := make([]string, 0, len(table))
	for _, sub := range table {
		verbs = append(verbs, sub.strong)
	}
	return verbs
}

// EnforceStyle normalizes a rewritten bullet: it drops leading first-person
// pronouns, swaps one leading weak verb for a stronger one and capitalizes
// the first letter. If nothing is left the input is returned unchanged.
//
// EnforceStyle is idempotent: pronouns are stripped until none remain, and
// none of the strong verbs is itself a weak verb.
func EnforceStyle(after string, locale types.Locale) string {
	pronoun, verbs := pronounTR, weakVerbsTR
	if locale == types.LocaleEN {
		pronoun, verbs = pronounEN, weakVerbsEN
	}
	if s := normalizeBullet(Trim(after), pronoun, verbs); s != "" {
		return s
	}
	return after
}

func normalizeBullet(s string, pronoun *regexp.Regexp, verbs []verbSubstitution) string {
	for {
		loc := pronoun.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[loc[1]:]
	}

	for _, sub := range verbs {
		if loc := sub.weak.FindStringIndex(s); loc != nil {
			s = sub.strong + s[loc[1]:]
			break
		}
	}

	if s == "" {
		return ""
	}
	s = capitalizeFirst(s)
	// "ı we" uppercases to "I we"
	if pronoun.MatchString(s) {
		return normalizeBullet(s, pronoun, verbs)
	}
	return s
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return strings.ToUpper(string(r)) + s[size:]
}
