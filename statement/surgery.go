package statement

import (
	"strconv"
	"strings"
)

// The helpers below patch the statement text in place. They operate on the first
// match only and never parse the SQL.

// ReplaceFirst replaces the first occurrence of old. It reports whether a match was found.
func (b *Buffer) ReplaceFirst(old, replacement string) bool {
	text := b.Text()
	i := strings.Index(text, old)
	if i < 0 {
		return false
	}
	b.SetText(text[:i] + replacement + text[i+len(old):])
	return true
}

// InsertTop rewrites the first SELECT to SELECT TOP n, or SELECT DISTINCT TOP n
// when that SELECT is already distinct.
func (b *Buffer) InsertTop(n int) bool {
	text := b.Text()
	i := strings.Index(text, "SELECT")
	if i < 0 {
		return false
	}
	at := i + len("SELECT")
	if firstIsDistinct(text[at:]) {
		at = i + len("SELECT DISTINCT")
	}
	b.SetText(text[:at] + " TOP " + strconv.Itoa(n) + text[at:])
	return true
}

// InsertDistinct rewrites the first SELECT to SELECT DISTINCT.
func (b *Buffer) InsertDistinct() bool {
	text := b.Text()
	i := strings.Index(text, "SELECT")
	if i < 0 {
		return false
	}
	at := i + len("SELECT")
	if firstIsDistinct(text[at:]) {
		return true
	}
	b.SetText(text[:at] + " DISTINCT" + text[at:])
	return true
}

func firstIsDistinct(rest string) bool {
	return strings.HasPrefix(rest, " DISTINCT ") || rest == " DISTINCT"
}

// Wrap surrounds the current text with prefix and suffix.
func (b *Buffer) Wrap(prefix, suffix string) {
	b.SetText(prefix + b.Text() + suffix)
}

// HasWhereClause reports whether the text holds a non-empty WHERE clause.
// The check is a case-insensitive substring scan and is fooled by a literal
// containing "WHERE"; builders track WHERE state explicitly and fall back to this
// only after raw SQL was appended.
func (b *Buffer) HasWhereClause() bool {
	upper := strings.ToUpper(b.Text())
	i := strings.LastIndex(upper, "WHERE")
	if i < 0 {
		return false
	}
	return strings.TrimSpace(upper[i+len("WHERE"):]) != ""
}
