package builder

import (
	"reflect"
	"sync"

	"github.com/gaborage/sqlexpr/compiler"
	"github.com/gaborage/sqlexpr/config"
	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/logger"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/gaborage/sqlexpr/statement"
)

// InterceptFunc may rewrite the final SQL. Returning "" keeps the original text.
type InterceptFunc func(sql string, params *statement.Parameters) string

type options struct {
	dialect       dialect.Dialect
	format        bool
	tableName     compiler.TableNameFunc
	intercept     InterceptFunc
	logger        logger.Logger
	resolver      *metadata.Resolver
	serverVersion string
	allowNull     bool
	quoteReserved bool
	err           error
}

// Option configures a Builder.
type Option func(*options)

func defaultOptions() options {
	return options{
		dialect:  dialect.SQLServer,
		logger:   logger.Nop(),
		resolver: metadata.Default(),
	}
}

// WithDialect selects the SQL dialect. SQL Server is the default.
func WithDialect(d dialect.Dialect) Option {
	return func(o *options) { o.dialect = d }
}

// WithFormat quotes every identifier.
func WithFormat(format bool) Option {
	return func(o *options) { o.format = format }
}

// WithReservedWordQuoting quotes table and column names that are reserved words of
// the dialect (Order, Key, Level) without turning on the format flag.
func WithReservedWordQuoting(on bool) Option {
	return func(o *options) { o.quoteReserved = on }
}

// WithTableName installs a table-name rewrite applied after metadata resolution.
func WithTableName(fn compiler.TableNameFunc) Option {
	return func(o *options) { o.tableName = fn }
}

// WithIntercept installs a hook that may rewrite the built SQL.
func WithIntercept(fn InterceptFunc) Option {
	return func(o *options) { o.intercept = fn }
}

// WithLogger logs each built statement at debug level.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResolver replaces the shared metadata resolver.
func WithResolver(r *metadata.Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// WithServerVersion selects the paging emulation for old SQL Server and Oracle releases.
func WithServerVersion(v string) Option {
	return func(o *options) { o.serverVersion = v }
}

// WithNullValueAssignment renders null members of inserts and updates as NULL
// instead of skipping them.
func WithNullValueAssignment(allow bool) Option {
	return func(o *options) { o.allowNull = allow }
}

// FromConfig applies the sql and log sections of cfg. Options listed after it override it.
func FromConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		d, err := cfg.SQL.DialectValue()
		if err != nil {
			o.err = err
			return
		}
		naming, err := cfg.SQL.NamingValue()
		if err != nil {
			o.err = err
			return
		}

		o.dialect = d
		o.format = cfg.SQL.Format
		o.serverVersion = cfg.SQL.ServerVersion
		o.allowNull = cfg.SQL.AllowNull
		o.quoteReserved = cfg.SQL.QuoteReserved
		o.resolver = resolverFor(naming)
		o.logger = logger.New(cfg.Log.Level, cfg.Log.Pretty)

		if len(cfg.SQL.Tables) > 0 {
			tables := cfg.SQL.Tables
			o.tableName = func(t reflect.Type, table string) string {
				if name, ok := tables[t.Name()]; ok {
					return name
				}
				return table
			}
		}
	}
}

var (
	resolversMu sync.Mutex
	resolvers   = map[metadata.Naming]*metadata.Resolver{}
)

// resolverFor shares one resolver per naming strategy so metadata is parsed once.
func resolverFor(n metadata.Naming) *metadata.Resolver {
	if n == metadata.NamingNone {
		return metadata.Default()
	}
	resolversMu.Lock()
	defer resolversMu.Unlock()
	r, ok := resolvers[n]
	if !ok {
		r = metadata.NewResolver(metadata.WithNaming(n))
		resolvers[n] = r
	}
	return r
}
