package quality

import (
	"regexp"
	"strings"
)

var (
	factTokenPattern = regexp.MustCompile(`[A-Za-z0-9%]+`)
	digitPattern     = regexp.MustCompile(`[0-9]`)
)

// allowedTokens builds the lowercase token set a rewrite may draw on
func allowedTokens(before string, userFacts []string) map[string]struct{} {
	source := lower(before + " " + strings.Join(userFacts, " "))
	allowed := make(map[string]struct{})
	for _, tok := range factTokenPattern.FindAllString(source, -1) {
		allowed[tok] = struct{}{}
	}
	return allowed
}

// FabricatedToken returns the first token of after that cannot be traced to
// before or userFacts and looks like a fact: it contains a digit or starts
// with an uppercase letter.
func FabricatedToken(before, after string, userFacts []string) (string, bool) {
	allowed := allowedTokens(before, userFacts)
	for _, tok := range factTokenPattern.FindAllString(after, -1) {
		if _, ok := allowed[strings.ToLower(tok)]; ok {
			continue
		}
		if digitPattern.MatchString(tok) || (tok[0] >= 'A' && tok[0] <= 'Z') {
			return tok, true
		}
	}
	return "", false
}

// ContainsFabrication reports whether after introduces an unseen number or
// capitalized term. Lowercase words the model adds are allowed.
func ContainsFabrication(before, after string, userFacts []string) bool {
	_, found := FabricatedToken(before, after, userFacts)
	return found
}
