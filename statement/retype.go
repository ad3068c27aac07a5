package statement

import (
	"strings"

	"github.com/gaborage/sqlexpr/internal/sqllex"
)

// RetypeParameters assigns declared types to untyped parameters by locating the column each
// placeholder is compared against. INSERT statements are skipped; their value lists
// already carry declared types. The operation is idempotent.
func (b *Buffer) RetypeParameters() {
	if b.kind == KindInsert || len(b.dataTypes) == 0 {
		return
	}
	var untyped []string
	for _, p := range b.params.items {
		if p.DataType == nil {
			untyped = append(untyped, p.Name)
		}
	}
	if len(untyped) == 0 {
		return
	}

	tokens := sqllex.Tokenize(b.Text())
	for _, name := range untyped {
		idx := indexOf(tokens, name)
		if idx < 0 {
			continue
		}
		column := b.comparedColumn(tokens, idx)
		if column == "" {
			continue
		}
		if dt, ok := b.DataType(column); ok {
			b.params.SetDataType(name, dt)
		}
	}
}

// comparedColumn finds the column on the other side of the comparison keyword
// adjacent to the parameter at idx, skipping neighbouring parameters.
func (b *Buffer) comparedColumn(tokens []string, idx int) string {
	if col := b.scan(tokens, idx, -1); col != "" {
		return col
	}
	return b.scan(tokens, idx, 1)
}

func (b *Buffer) scan(tokens []string, idx, step int) string {
	j := b.skipParams(tokens, idx+step, step)
	if j < 0 || j >= len(tokens) || !sqllex.IsComparison(tokens[j]) {
		return ""
	}
	k := b.skipParams(tokens, j+step, step)
	if k < 0 || k >= len(tokens) || sqllex.IsComparison(tokens[k]) {
		return ""
	}
	return tokens[k]
}

func (b *Buffer) skipParams(tokens []string, i, step int) int {
	for i >= 0 && i < len(tokens) && b.isParamToken(tokens[i]) {
		i += step
	}
	return i
}

func (b *Buffer) isParamToken(tok string) bool {
	prefix := b.dialect.Prefix()
	return prefix != "" && strings.HasPrefix(tok, prefix) && len(tok) > len(prefix)
}

func indexOf(tokens []string, tok string) int {
	for i, t := range tokens {
		if t == tok {
			return i
		}
	}
	return -1
}
