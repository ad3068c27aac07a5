package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNotInitialized = errors.New("configuration not initialized")

// GetString returns the value at key, or the provided default when the key is absent.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetInt returns the value at key as an int, or the default when the key is absent
// or not an integer.
func (c *Config) GetInt(key string, defaultVal ...int) int {
	if !c.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	switch v := c.k.Get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return optionalDefault(0, defaultVal...)
}

// GetBool returns the value at key as a bool, or the default when the key is absent
// or not a boolean.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if !c.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	switch v := c.k.Get(key).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return optionalDefault(false, defaultVal...)
}

// GetRequiredString returns the value at key or a *ConfigError when it is missing or blank.
func (c *Config) GetRequiredString(key string) (string, error) {
	if c == nil || c.k == nil {
		return "", errNotInitialized
	}
	val := strings.TrimSpace(c.GetString(key))
	if val == "" {
		return "", NewMissingFieldError(key)
	}
	return val, nil
}

// Unmarshal decodes the section at key into out.
func (c *Config) Unmarshal(key string, out any) error {
	if c == nil || c.k == nil {
		return errNotInitialized
	}
	if err := c.k.Unmarshal(key, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key is set by any source.
func (c *Config) Exists(key string) bool {
	if c == nil || c.k == nil {
		return false
	}
	return c.k.Exists(key)
}

func optionalDefault[T any](zero T, overrides ...T) T {
	if len(overrides) > 0 {
		return overrides[0]
	}
	return zero
}
