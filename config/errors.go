package config

import (
	"fmt"
	"strings"

	"github.com/gaborage/sqlexpr/sqlerr"
)

// Category classifies a configuration error.
type Category string

const (
	CategoryMissing Category = "missing"
	CategoryInvalid Category = "invalid"
)

// ConfigError names the offending key and how to fix it. It wraps
// sqlerr.ErrInvalidUsage, so a builder configured from a bad file fails the same
// way a misused builder does.
//
//nolint:revive // config.ConfigError reads better at call sites than config.Error
type ConfigError struct {
	Category Category
	Field    string // koanf key, e.g. "sql.dialect"
	Message  string
	Action   string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Category != "" {
		b.WriteString("config_" + string(e.Category) + ":")
	}
	for _, part := range []string{e.Field, e.Message, e.Action} {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return sqlerr.ErrInvalidUsage }

// envVar is the environment variable that overrides key.
func envVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// NewMissingFieldError reports a required key without a value.
func NewMissingFieldError(field string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to the yaml file", envVar(field), field),
	}
}

// NewInvalidFieldError reports a value outside validOptions. A nil validOptions
// leaves the action empty.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{Category: CategoryInvalid, Field: field, Message: message}
	if len(validOptions) > 0 {
		err.Action = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return err
}
