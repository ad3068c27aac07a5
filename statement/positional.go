package statement

import (
	"regexp"
	"strings"
)

// tokenRE finds candidate parameter tokens: a prefix character followed by an identifier.
var tokenRE = regexp.MustCompile(`[@:?$]\w+`)

// ReplaceTokens calls fn for every parameter token in sql, in order of appearance, and
// substitutes its result. Tokens not present in params are left untouched.
func ReplaceTokens(sql string, params *Parameters, fn func(Parameter) string) string {
	spans := tokenSpans(sql, params)
	if len(spans) == 0 {
		return sql
	}
	var out strings.Builder
	last := 0
	for _, s := range spans {
		p, _ := params.Get(sql[s[0]:s[1]])
		out.WriteString(sql[last:s[0]])
		out.WriteString(fn(p))
		last = s[1]
	}
	out.WriteString(sql[last:])
	return out.String()
}

// Positional replaces every parameter token in sql with "?" and returns the values
// in order of appearance. A parameter referenced twice yields two arguments.
func Positional(sql string, params *Parameters) (string, []any) {
	var args []any
	out := ReplaceTokens(sql, params, func(p Parameter) string {
		args = append(args, p.Value)
		return "?"
	})
	return out, args
}

// Referenced returns the parameters whose tokens occur in sql, once each, in order
// of first appearance.
func Referenced(sql string, params *Parameters) []Parameter {
	var out []Parameter
	seen := make(map[string]bool)
	for _, s := range tokenSpans(sql, params) {
		tok := sql[s[0]:s[1]]
		if seen[tok] {
			continue
		}
		seen[tok] = true
		p, _ := params.Get(tok)
		out = append(out, p)
	}
	return out
}

// tokenSpans returns the positions of whole tokens naming a parameter. A token glued
// to a preceding identifier or prefix character (valid, @@id, x::int) is not a token.
func tokenSpans(sql string, params *Parameters) [][]int {
	if params.Len() == 0 {
		return nil
	}
	var spans [][]int
	for _, loc := range tokenRE.FindAllStringIndex(sql, -1) {
		if loc[0] > 0 && isTokenByte(sql[loc[0]-1]) {
			continue
		}
		if _, ok := params.Get(sql[loc[0]:loc[1]]); !ok {
			continue
		}
		spans = append(spans, loc)
	}
	return spans
}

func isTokenByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("_@:?$", c) >= 0
}
