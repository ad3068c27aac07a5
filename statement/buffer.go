// Package statement holds the mutable compilation unit of one SQL statement:
// its text, bound parameters, table aliases and the column caches used while
// translating expressions.
//
// A Buffer is not safe for concurrent use; confine it to one builder.
package statement

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/internal/sqllex"
	"github.com/gaborage/sqlexpr/metadata"
)

// Kind is the statement kind currently held by a Buffer.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	KindAggregate
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindInsert:
		return "insert"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	case KindAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// DefaultAlias is bound when SetAlias is called without an alias.
const DefaultAlias = "t"

// NullLiteral replaces null parameter values in the statement text.
const NullLiteral = "NULL"

type aliasEntry struct {
	alias string
	table string
}

// Buffer accumulates SQL text and parameters for one statement.
type Buffer struct {
	dialect dialect.Dialect
	text    strings.Builder

	params *Parameters
	seq    int

	aliases       []aliasEntry
	selectFields  []string
	joined        map[reflect.Type]struct{}
	formatColumns map[string]struct{}
	dataTypes     map[string]*metadata.DataType

	singleTable   bool
	allowNull     bool
	forceQuoting  bool
	quoteReserved bool
	kind          Kind
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithFormat quotes every identifier, not only format columns.
func WithFormat(format bool) Option {
	return func(b *Buffer) { b.forceQuoting = format }
}

// WithReservedWordQuoting quotes identifiers that are reserved words of the dialect
// even when the format flag is off.
func WithReservedWordQuoting(on bool) Option {
	return func(b *Buffer) { b.quoteReserved = on }
}

// WithNullValueAssignment keeps null members in INSERT and UPDATE value lists.
func WithNullValueAssignment(allow bool) Option {
	return func(b *Buffer) { b.allowNull = allow }
}

// New creates an empty single-table SELECT buffer for d.
func New(d dialect.Dialect, opts ...Option) *Buffer {
	b := &Buffer{
		dialect:     d,
		params:      NewParameters(),
		dataTypes:   make(map[string]*metadata.DataType),
		singleTable: true,
	}
	b.resetState()
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Buffer) resetState() {
	b.joined = make(map[reflect.Type]struct{})
	b.formatColumns = make(map[string]struct{})
	b.aliases = nil
	b.selectFields = nil
}

// Dialect returns the dialect the buffer renders for.
func (b *Buffer) Dialect() dialect.Dialect { return b.dialect }

// Text returns the current SQL text.
func (b *Buffer) Text() string { return b.text.String() }

// Len returns the length of the SQL text in bytes.
func (b *Buffer) Len() int { return b.text.Len() }

// Append writes s to the SQL text.
func (b *Buffer) Append(s ...string) *Buffer {
	for _, part := range s {
		b.text.WriteString(part)
	}
	return b
}

// Appendf writes a formatted fragment.
func (b *Buffer) Appendf(format string, args ...any) *Buffer {
	fmt.Fprintf(&b.text, format, args...)
	return b
}

// SetText replaces the SQL text. Parameters and caches are kept.
func (b *Buffer) SetText(s string) {
	b.text.Reset()
	b.text.WriteString(s)
}

// Reset clears the SQL text only.
func (b *Buffer) Reset() { b.text.Reset() }

// Clear starts a new statement. Text, parameters, aliases, select fields, joined types
// and format columns are wiped; the data-type cache survives for later re-typing.
func (b *Buffer) Clear() {
	b.text.Reset()
	b.params = NewParameters()
	b.seq = 0
	b.resetState()
	b.singleTable = true
	b.kind = KindSelect
}

// Kind returns the current statement kind.
func (b *Buffer) Kind() Kind { return b.kind }

// SetKind records the statement kind.
func (b *Buffer) SetKind(k Kind) { b.kind = k }

// SingleTable reports whether aliases are suppressed.
func (b *Buffer) SingleTable() bool { return b.singleTable }

// SetSingleTable toggles alias suppression. Joins turn it off.
func (b *Buffer) SetSingleTable(v bool) { b.singleTable = v }

// AllowNullValueAssignment reports whether null members are written by INSERT and UPDATE.
func (b *Buffer) AllowNullValueAssignment() bool { return b.allowNull }

// ForceQuoting reports whether the global format flag is on.
func (b *Buffer) ForceQuoting() bool { return b.forceQuoting }

// Quote applies identifier quoting to name when the format flag is on, when name is a
// registered format column, or, with reserved-word quoting enabled, when any part of
// it is a reserved word of the dialect. Already-quoted names are returned unchanged.
func (b *Buffer) Quote(name string) string {
	if name == "" || name == "*" {
		return name
	}
	if b.forceQuoting || b.isFormatColumn(name) || (b.quoteReserved && b.hasReservedPart(name)) {
		return b.dialect.Quote(name)
	}
	return name
}

// QuoteQualified quotes column and prefixes it with alias when alias is not empty.
func (b *Buffer) QuoteQualified(alias, column string) string {
	column = b.Quote(column)
	if alias == "" {
		return column
	}
	return alias + "." + column
}

func (b *Buffer) hasReservedPart(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if !b.dialect.IsQuoted(part) && sqllex.IsReservedWord(b.dialect, part) {
			return true
		}
	}
	return false
}

func (b *Buffer) isFormatColumn(name string) bool {
	_, ok := b.formatColumns[name]
	return ok
}

// AddFormatColumn flags name for quoting regardless of the format flag.
func (b *Buffer) AddFormatColumn(name string) {
	b.formatColumns[name] = struct{}{}
}

// AddParameter appends a placeholder for value and records it. A null value is written
// as the literal NULL and never parameterized. The appended token is returned.
func (b *Buffer) AddParameter(value any, dataType *metadata.DataType, name ...string) string {
	token := b.BindParameter(value, dataType, name...)
	b.text.WriteString(token)
	return token
}

// BindParameter records value like AddParameter but leaves the text untouched.
func (b *Buffer) BindParameter(value any, dataType *metadata.DataType, name ...string) string {
	value, null := expr.Normalize(value)
	if null {
		return NullLiteral
	}
	var paramName string
	if len(name) > 0 && name[0] != "" {
		paramName = b.ParameterName(name[0])
	} else {
		b.seq++
		paramName = b.dialect.Prefix() + "p__" + strconv.Itoa(b.seq)
	}
	b.params.Add(paramName, value, dataType)
	return paramName
}

// ParameterName prefixes name with the dialect's parameter prefix unless it already
// carries it.
func (b *Buffer) ParameterName(name string) string {
	if strings.HasPrefix(name, b.dialect.Prefix()) {
		return name
	}
	return b.dialect.Prefix() + name
}

// Parameters returns the bound parameters.
func (b *Buffer) Parameters() *Parameters { return b.params }

// SetAlias binds alias (DefaultAlias when empty) to table. It returns false when the alias
// is already bound to another table or the table already carries a different alias.
func (b *Buffer) SetAlias(table string, alias ...string) bool {
	a := DefaultAlias
	if len(alias) > 0 && alias[0] != "" {
		a = alias[0]
	}
	a = b.Quote(a)
	for _, e := range b.aliases {
		if e.alias == a {
			return e.table == table
		}
	}
	for _, e := range b.aliases {
		if e.table == table {
			return false
		}
	}
	b.aliases = append(b.aliases, aliasEntry{alias: a, table: table})
	return true
}

// ResolveAlias returns the alias bound to table, preferring preferred when it is bound
// to that table. Single-table statements never alias and always get "".
func (b *Buffer) ResolveAlias(table string, preferred ...string) string {
	if b.singleTable {
		return ""
	}
	if len(preferred) > 0 && preferred[0] != "" {
		p := b.Quote(preferred[0])
		for _, e := range b.aliases {
			if e.alias == p && e.table == table {
				return e.alias
			}
		}
	}
	for _, e := range b.aliases {
		if e.table == table {
			return e.alias
		}
	}
	return ""
}

// HasAlias reports whether alias is bound to any table.
func (b *Buffer) HasAlias(alias string) bool {
	a := b.Quote(alias)
	for _, e := range b.aliases {
		if e.alias == a {
			return true
		}
	}
	return false
}

// Aliases returns a copy of the alias -> table map.
func (b *Buffer) Aliases() map[string]string {
	out := make(map[string]string, len(b.aliases))
	for _, e := range b.aliases {
		out[e.alias] = e.table
	}
	return out
}

// AddSelectField records an emitted projection fragment.
func (b *Buffer) AddSelectField(field string) {
	b.selectFields = append(b.selectFields, field)
}

// SelectFields returns the projection fragments in emission order.
func (b *Buffer) SelectFields() []string {
	return append([]string(nil), b.selectFields...)
}

// MarkJoined records t as part of the statement.
func (b *Buffer) MarkJoined(t reflect.Type) {
	b.joined[t] = struct{}{}
}

// IsJoined reports whether t is already part of the statement.
func (b *Buffer) IsJoined(t reflect.Type) bool {
	_, ok := b.joined[t]
	return ok
}

// RegisterDataType caches the declared type of alias.column (column alone when alias is empty).
func (b *Buffer) RegisterDataType(alias, column string, dataType *metadata.DataType) {
	if dataType == nil {
		return
	}
	b.dataTypes[b.dataTypeKey(alias, column)] = dataType
}

// DataType looks up a cached declared type by its alias.column or column key.
func (b *Buffer) DataType(key string) (*metadata.DataType, bool) {
	dt, ok := b.dataTypes[b.dialect.Unquote(key)]
	return dt, ok
}

func (b *Buffer) dataTypeKey(alias, column string) string {
	column = b.dialect.Unquote(column)
	if alias == "" {
		return column
	}
	return b.dialect.Unquote(alias) + "." + column
}
