package config

import (
	"time"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/knadh/koanf/v2"
)

// Config holds the generator settings. The embedded koanf instance keeps
// application-specific keys reachable through the getters.
type Config struct {
	SQL   SQLConfig   `koanf:"sql" json:"sql" yaml:"sql" mapstructure:"sql"`
	Query QueryConfig `koanf:"query" json:"query" yaml:"query" mapstructure:"query"`
	Log   LogConfig   `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`

	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// SQLConfig selects the dialect and the rendering options of every builder
// created from this configuration.
type SQLConfig struct {
	// Dialect is one of sqlserver, mysql, oracle, sqlite or postgresql (aliases accepted).
	Dialect string `koanf:"dialect" json:"dialect" yaml:"dialect" mapstructure:"dialect" validate:"required,dialect"`
	// Format quotes every identifier.
	Format bool `koanf:"format" json:"format" yaml:"format" mapstructure:"format"`
	// ServerVersion selects the paging emulation on SQL Server and Oracle, e.g. "10.50" or "11.2".
	ServerVersion string `koanf:"serverversion" json:"serverversion" yaml:"serverversion" mapstructure:"serverversion" validate:"omitempty,serverversion"`
	// QuoteReserved quotes reserved-word identifiers while Format is off.
	QuoteReserved bool `koanf:"quotereserved" json:"quotereserved" yaml:"quotereserved" mapstructure:"quotereserved"`
	// AllowNull renders null members of inserts and updates as NULL instead of skipping them.
	AllowNull bool `koanf:"allownull" json:"allownull" yaml:"allownull" mapstructure:"allownull"`
	// Naming derives names of untagged entities: none, snake or plural_snake.
	Naming string `koanf:"naming" json:"naming" yaml:"naming" mapstructure:"naming" validate:"omitempty,naming"`
	// Tables maps Go type names to table names, overriding the entity metadata.
	Tables map[string]string `koanf:"tables" json:"tables" yaml:"tables" mapstructure:"tables" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// QueryConfig holds settings related to query logging and slow query detection.
type QueryConfig struct {
	Slow SlowQueryConfig `koanf:"slow" json:"slow" yaml:"slow" mapstructure:"slow"`
	Log  QueryLogConfig  `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
}

// SlowQueryConfig holds settings for slow query detection.
type SlowQueryConfig struct {
	Threshold time.Duration `koanf:"threshold" json:"threshold" yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
	Enabled   bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// QueryLogConfig holds settings for query logging.
type QueryLogConfig struct {
	Parameters bool `koanf:"parameters" json:"parameters" yaml:"parameters" mapstructure:"parameters"`
	MaxLength  int  `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// DialectValue parses the configured dialect.
func (c SQLConfig) DialectValue() (dialect.Dialect, error) {
	return dialect.Parse(c.Dialect)
}

// NamingValue parses the configured naming strategy.
func (c SQLConfig) NamingValue() (metadata.Naming, error) {
	return metadata.ParseNaming(c.Naming)
}
