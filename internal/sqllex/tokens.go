package sqllex

import (
	"regexp"
	"strings"
)

var (
	notInPattern   = regexp.MustCompile(`(?i)\bNOT\s+IN\b`)
	notLikePattern = regexp.MustCompile(`(?i)\bNOT\s+LIKE\b`)
)

// comparisonKeywords link a column token to a parameter token.
var comparisonKeywords = map[string]struct{}{
	"=": {}, "<>": {}, "!=": {}, ">": {}, ">=": {}, "<": {}, "<=": {}, "IN": {}, "LIKE": {},
}

// IsComparison reports whether token is a comparison or membership keyword.
func IsComparison(token string) bool {
	_, ok := comparisonKeywords[strings.ToUpper(token)]
	return ok
}

// Tokenize splits statement text into the token stream used for parameter re-typing.
// Negated forms are folded (NOT IN -> IN, NOT LIKE -> LIKE), tokens holding wildcards,
// concatenation markers or quoted literals are dropped, and function-call tokens are
// collapsed to their innermost identifier.
func Tokenize(text string) []string {
	text = notInPattern.ReplaceAllString(text, "IN")
	text = notLikePattern.ReplaceAllString(text, "LIKE")

	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ','
	})

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if skipToken(tok) {
			continue
		}
		tok = CollapseCall(tok)
		if tok == "" {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func skipToken(tok string) bool {
	return strings.Contains(tok, "%") ||
		strings.Contains(tok, "||") ||
		tok == "+" ||
		strings.Contains(tok, "'")
}

// CollapseCall reduces a parenthesised token to its innermost identifier:
// "UPPER(x.Name)" -> "x.Name", "(@p__1" -> "@p__1", "@p__2)" -> "@p__2".
func CollapseCall(tok string) string {
	if i := strings.LastIndex(tok, "("); i >= 0 {
		tok = tok[i+1:]
	}
	if i := strings.Index(tok, ")"); i >= 0 {
		tok = tok[:i]
	}
	return tok
}
