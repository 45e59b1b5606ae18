package gaps

import "strings"

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "a": {}, "an": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "at": {}, "or": {}, "ve": {}, "ile": {}, "bir": {}, "için": {},
}

// NormalizeJobDescription collapses whitespace and drops common English and
// Turkish stopwords
func NormalizeJobDescription(text string) string {
	words := strings.Fields(text)
	out := words[:0]
	for _, w := range words {
		if _, stop := stopwords[strings.ToLower(w)]; stop {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}
