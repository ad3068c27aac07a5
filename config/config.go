// Package config loads generator settings from defaults, an optional YAML
// document and SQLEXPR_ environment variables, in increasing priority.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables read by Load. SQLEXPR_SQL_DIALECT maps to sql.dialect.
const EnvPrefix = "SQLEXPR_"

// Load reads configuration from the YAML file at path, if path is not empty.
func Load(path string) (*Config, error) {
	var src koanf.Provider
	if path != "" {
		src = file.Provider(path)
	}
	return load(src)
}

// LoadBytes reads configuration from an in-memory YAML document.
func LoadBytes(data []byte) (*Config, error) {
	return load(rawbytes.Provider(data))
}

func load(src koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if src != nil {
		if err := k.Load(src, yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load yaml: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"sql.dialect":       "sqlserver",
		"sql.format":        false,
		"sql.serverversion": "",
		"sql.allownull":     false,
		"sql.quotereserved": false,
		"sql.naming":        "none",

		"query.slow.threshold": "200ms",
		"query.slow.enabled":   true,
		"query.log.parameters": false,
		"query.log.max":        1000,

		"log.level":  "info",
		"log.pretty": false,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}
