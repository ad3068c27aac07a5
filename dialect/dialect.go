// Package dialect describes the SQL dialects supported by the generator.
// Each dialect owns a parameter prefix, an identifier quoting template and
// a pagination strategy.
package dialect

import (
	"strings"

	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/lib/pq"
)

// Dialect identifies a SQL variant. It is selected once per builder.
type Dialect int

const (
	SQLServer Dialect = iota
	MySQL
	Oracle
	SQLite
	PostgreSQL
)

// Pagination selects the paging algorithm used by Top and Page.
type Pagination int

const (
	// PaginationTopRowNumber uses TOP for row limits and OFFSET/FETCH or ROW_NUMBER() for pages.
	PaginationTopRowNumber Pagination = iota
	// PaginationRownum uses ROWNUM wrapping or OFFSET/FETCH.
	PaginationRownum
	// PaginationLimitOffset uses LIMIT/OFFSET.
	PaginationLimitOffset
)

// Profile holds the per-dialect constants.
type Profile struct {
	Name       string
	Prefix     string
	OpenQuote  string
	CloseQuote string
	Pagination Pagination
}

var profiles = map[Dialect]Profile{
	SQLServer:  {Name: "sqlserver", Prefix: "@", OpenQuote: "[", CloseQuote: "]", Pagination: PaginationTopRowNumber},
	MySQL:      {Name: "mysql", Prefix: "?", OpenQuote: "`", CloseQuote: "`", Pagination: PaginationLimitOffset},
	Oracle:     {Name: "oracle", Prefix: ":", OpenQuote: `"`, CloseQuote: `"`, Pagination: PaginationRownum},
	SQLite:     {Name: "sqlite", Prefix: "@", OpenQuote: `"`, CloseQuote: `"`, Pagination: PaginationLimitOffset},
	PostgreSQL: {Name: "postgresql", Prefix: ":", OpenQuote: `"`, CloseQuote: `"`, Pagination: PaginationLimitOffset},
}

var aliases = map[string]Dialect{
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"mysql":      MySQL,
	"oracle":     Oracle,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgresql": PostgreSQL,
	"postgres":   PostgreSQL,
	"pg":         PostgreSQL,
}

// Parse resolves a dialect from its configuration name (case-insensitive).
func Parse(name string) (Dialect, error) {
	d, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, sqlerr.UnsupportedDialect("dialect.Parse", name)
	}
	return d, nil
}

// Valid reports whether d is one of the known dialects.
func (d Dialect) Valid() bool {
	_, ok := profiles[d]
	return ok
}

// String returns the dialect's configuration name.
func (d Dialect) String() string {
	if p, ok := profiles[d]; ok {
		return p.Name
	}
	return "unknown"
}

// Profile returns the dialect constants. Unknown dialects get an empty profile.
func (d Dialect) Profile() Profile {
	return profiles[d]
}

// Prefix returns the parameter-name prefix (@, ? or :).
func (d Dialect) Prefix() string {
	return profiles[d].Prefix
}

// Pagination returns the paging strategy of the dialect.
func (d Dialect) Pagination() Pagination {
	return profiles[d].Pagination
}

// IsQuoted reports whether name already starts with the dialect's opening quote character.
func (d Dialect) IsQuoted(name string) bool {
	open := profiles[d].OpenQuote
	return open != "" && strings.HasPrefix(name, open)
}

// Quote wraps every dot-separated part of name in the dialect's identifier quotes.
// Parts that already start with the opening quote and the `*` wildcard are left untouched.
func (d Dialect) Quote(name string) string {
	if name == "" {
		return name
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = d.quotePart(part)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) quotePart(part string) string {
	if part == "" || part == "*" || d.IsQuoted(part) {
		return part
	}
	p, ok := profiles[d]
	if !ok {
		return part
	}
	if d == PostgreSQL {
		return pq.QuoteIdentifier(part)
	}
	return p.OpenQuote + part + p.CloseQuote
}

// Unquote strips the dialect's identifier quotes from every part of name.
func (d Dialect) Unquote(name string) string {
	p, ok := profiles[d]
	if !ok {
		return name
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		part = strings.TrimPrefix(part, p.OpenQuote)
		parts[i] = strings.TrimSuffix(part, p.CloseQuote)
	}
	return strings.Join(parts, ".")
}
