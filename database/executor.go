package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/sqlexpr/config"
	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/logger"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/gaborage/sqlexpr/statement"
)

const (
	// DefaultSlowQueryThreshold defines the default threshold for slow query detection
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength defines the default maximum query length for logging
	DefaultMaxQueryLength = 1000
)

// Querier runs statements. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Statement is a built statement. *builder.Builder satisfies it.
type Statement interface {
	Build() (string, *statement.Parameters, error)
	Dialect() dialect.Dialect
}

// Settings controls how executed statements are logged.
type Settings struct {
	SlowQueryThreshold time.Duration
	SlowQueryEnabled   bool
	MaxQueryLength     int
	LogParameters      bool
}

// DefaultSettings returns the tracking defaults.
func DefaultSettings() Settings {
	return Settings{
		SlowQueryThreshold: DefaultSlowQueryThreshold,
		SlowQueryEnabled:   true,
		MaxQueryLength:     DefaultMaxQueryLength,
	}
}

// SettingsFromConfig reads the query section of cfg. Non-positive values keep the defaults.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.Query.Slow.Threshold > 0 {
		s.SlowQueryThreshold = cfg.Query.Slow.Threshold
	}
	if cfg.Query.Log.MaxLength > 0 {
		s.MaxQueryLength = cfg.Query.Log.MaxLength
	}
	s.SlowQueryEnabled = cfg.Query.Slow.Enabled
	s.LogParameters = cfg.Query.Log.Parameters
	return s
}

// Executor builds, binds and runs statements against a Querier, logging each one.
type Executor struct {
	db       Querier
	log      logger.Logger
	settings Settings
}

// NewExecutor creates an Executor over db. A nil logger discards output.
func NewExecutor(db Querier, log logger.Logger, settings Settings) *Executor {
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{db: db, log: log.WithFields(map[string]any{"component": "database"}), settings: settings}
}

// Query runs a statement that returns rows. The caller closes the rows.
func (e *Executor) Query(ctx context.Context, s Statement) (*sql.Rows, error) {
	text, params, err := s.Build()
	if err != nil {
		return nil, err
	}
	return e.query(ctx, s.Dialect(), text, params)
}

// Exec runs a statement that returns no rows.
func (e *Executor) Exec(ctx context.Context, s Statement) (sql.Result, error) {
	text, params, err := s.Build()
	if err != nil {
		return nil, err
	}

	query, args, err := NewBinder(s.Dialect(), e.log).Bind(text, params)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := e.db.ExecContext(ctx, query, args...)
	e.track(s.Dialect(), query, args, start, rowsAffected(res, err), err)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return res, nil
}

// QueryPage runs a statement built with Page or PageByWith. The count query and the
// page query are sent separately, so drivers without batch support work too.
func (e *Executor) QueryPage(ctx context.Context, s Statement) (total int64, rows *sql.Rows, err error) {
	const op = "database.QueryPage"
	text, params, err := s.Build()
	if err != nil {
		return 0, nil, err
	}
	parts := SplitBatch(text)
	if len(parts) != 2 {
		return 0, nil, sqlerr.InvalidUsage(op, "expected a count query and a page query, got %d statements", len(parts))
	}

	countRows, err := e.query(ctx, s.Dialect(), parts[0], params)
	if err != nil {
		return 0, nil, err
	}
	defer countRows.Close()
	if !countRows.Next() {
		if err := countRows.Err(); err != nil {
			return 0, nil, fmt.Errorf("count query failed: %w", err)
		}
		return 0, nil, fmt.Errorf("count query failed: %w", sql.ErrNoRows)
	}
	if err := countRows.Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count query failed: %w", err)
	}
	if err := countRows.Close(); err != nil {
		return 0, nil, fmt.Errorf("count query failed: %w", err)
	}

	rows, err = e.query(ctx, s.Dialect(), parts[1], params)
	if err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

func (e *Executor) query(ctx context.Context, d dialect.Dialect, text string, params *statement.Parameters) (*sql.Rows, error) {
	query, args, err := NewBinder(d, e.log).Bind(text, params)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query, args...)
	e.track(d, query, args, start, 0, err)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// track emits one log event per executed statement.
func (e *Executor) track(d dialect.Dialect, query string, args []any, start time.Time, affected int64, err error) {
	elapsed := time.Since(start)

	var ev logger.LogEvent
	msg := "Database operation executed"
	switch {
	case errors.Is(err, sql.ErrNoRows):
		ev = e.log.Debug()
		msg = "Database operation returned no rows"
	case err != nil:
		ev = e.log.Error().Err(err)
		msg = "Database operation error"
	case e.settings.SlowQueryEnabled && elapsed > e.settings.SlowQueryThreshold:
		ev = e.log.Warn()
		msg = fmt.Sprintf("Slow database operation detected (%s)", elapsed)
	default:
		ev = e.log.Debug()
	}

	ev = ev.Stringer("dialect", d).
		Int64("duration_ms", elapsed.Milliseconds()).
		Str("query", truncate(query, e.settings.MaxQueryLength))
	if affected > 0 {
		ev = ev.Int64("rows_affected", affected)
	}
	if e.settings.LogParameters && len(args) > 0 {
		ev = ev.Interface("args", args)
	}
	ev.Msg(msg)
}

func rowsAffected(res sql.Result, err error) int64 {
	if res == nil || err != nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// truncate shortens value to at most maxLen runes, ending in "..." when there is room.
func truncate(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SplitBatch splits text at semicolons outside single-quoted literals and drops
// empty statements.
func SplitBatch(text string) []string {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, s)
		}
		current.Reset()
	}
	for _, r := range text {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ';' && !quoted:
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return parts
}
