// Package database hands built statements to database/sql drivers: it turns the
// dialect-agnostic parameter set into the argument form each driver expects and
// runs statements through any Querier.
package database

import (
	"database/sql"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/logger"
	"github.com/gaborage/sqlexpr/statement"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Binder materializes parameters for one dialect.
type Binder struct {
	dialect dialect.Dialect
	log     logger.Logger
}

// NewBinder creates a Binder for d. A nil logger discards output.
func NewBinder(d dialect.Dialect, log logger.Logger) *Binder {
	if log == nil {
		log = logger.Nop()
	}
	return &Binder{dialect: d, log: log}
}

// Bind is NewBinder(d, nil).Bind(sql, params).
func Bind(d dialect.Dialect, sql string, params *statement.Parameters) (string, []any, error) {
	return NewBinder(d, nil).Bind(sql, params)
}

// Bind returns the statement text and arguments for the dialect's driver. Only
// parameters referenced by sql are bound.
//
//   - SQL Server and SQLite: sql.NamedArg per parameter, text unchanged.
//   - Oracle: sql.NamedArg with go-ora typed values for declared NVARCHAR, NCHAR,
//     CLOB, NCLOB, TIMESTAMP and TIMESTAMP WITH TIME ZONE columns.
//   - PostgreSQL: a single pgx.NamedArgs, with :name tokens rewritten to @name.
//   - MySQL: positional "?" arguments in order of appearance.
//
// An unknown dialect binds no arguments and logs a warning.
func (b *Binder) Bind(sql string, params *statement.Parameters) (string, []any, error) {
	switch b.dialect {
	case dialect.SQLServer, dialect.SQLite:
		return sql, b.named(sql, params, b.value), nil
	case dialect.Oracle:
		return sql, b.named(sql, params, oracleValue), nil
	case dialect.PostgreSQL:
		text, args := pgxNamed(sql, params)
		return text, args, nil
	case dialect.MySQL:
		return Positional(b.dialect, sql, params, squirrel.Question)
	default:
		b.log.Warn().
			Stringer("dialect", b.dialect).
			Int("parameters", params.Len()).
			Msg("no parameter mapping for dialect, statement bound without arguments")
		return sql, nil, nil
	}
}

func (b *Binder) named(text string, params *statement.Parameters, value func(statement.Parameter) any) []any {
	refs := statement.Referenced(text, params)
	if len(refs) == 0 {
		return nil
	}
	args := make([]any, len(refs))
	for i, p := range refs {
		args[i] = sql.Named(strings.TrimPrefix(p.Name, b.dialect.Prefix()), value(p))
	}
	return args
}

func (b *Binder) value(p statement.Parameter) any {
	return driverValue(b.dialect, p.Value)
}

// pgxNamed rewrites parameter tokens to pgx's @name form and collects a pgx.NamedArgs.
// Through database/sql the NamedArgs must be the only argument; pgx's stdlib driver
// expands it.
func pgxNamed(text string, params *statement.Parameters) (string, []any) {
	refs := statement.Referenced(text, params)
	if len(refs) == 0 {
		return text, nil
	}
	named := make(pgx.NamedArgs, len(refs))
	for _, p := range refs {
		named[pgxName(p.Name)] = driverValue(dialect.PostgreSQL, p.Value)
	}
	text = statement.ReplaceTokens(text, params, func(p statement.Parameter) string {
		return "@" + pgxName(p.Name)
	})
	return text, []any{named}
}

func pgxName(name string) string {
	return strings.TrimLeft(name, "@:?$")
}

// Positional rewrites parameter tokens to "?" and then to format, for drivers that
// only take ordinal arguments ($1 with squirrel.Dollar, :1 with squirrel.Colon).
// A parameter referenced twice is passed twice.
func Positional(d dialect.Dialect, sql string, params *statement.Parameters, format squirrel.PlaceholderFormat) (string, []any, error) {
	text, args := statement.Positional(sql, params)
	for i, v := range args {
		args[i] = driverValue(d, v)
	}
	if format == nil {
		format = squirrel.Question
	}
	text, err := format.ReplacePlaceholders(text)
	if err != nil {
		return "", nil, err
	}
	return text, args, nil
}

// driverValue converts values the dialect's driver has no native mapping for.
func driverValue(d dialect.Dialect, v any) any {
	if d == dialect.PostgreSQL {
		return v
	}
	switch u := v.(type) {
	case uuid.UUID:
		return u.String()
	case *uuid.UUID:
		if u == nil {
			return nil
		}
		return u.String()
	}
	return v
}
