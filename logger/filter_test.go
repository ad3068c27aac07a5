package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFilterConfig(t *testing.T) {
	config := DefaultFilterConfig()
	assert.Equal(t, DefaultMaskValue, config.MaskValue)
	assert.Contains(t, config.SensitiveFields, "password")
	assert.Contains(t, config.SensitiveFields, "dsn")
}

func TestNewSensitiveDataFilterDefaults(t *testing.T) {
	f := NewSensitiveDataFilter(nil)
	assert.Equal(t, DefaultMaskValue, f.config.MaskValue)

	f = NewSensitiveDataFilter(&FilterConfig{SensitiveFields: []string{"pin"}})
	assert.Equal(t, DefaultMaskValue, f.config.MaskValue)
}

func TestFilterString(t *testing.T) {
	f := NewSensitiveDataFilter(nil)
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "plain", key: "sql", value: "SELECT 1", want: "SELECT 1"},
		{name: "password", key: "Password", value: "secret", want: DefaultMaskValue},
		{name: "empty", key: "password", value: "", want: ""},
		{name: "dsn with password", key: "dsn", value: "postgres://app:pw@db:5432/main", want: "postgres://app:***@db:5432/main"},
		{name: "dsn with query", key: "dsn", value: "postgres://app:pw@db/main?sslmode=disable", want: "postgres://app:***@db/main?sslmode=disable"},
		{name: "dsn without password", key: "dsn", value: "postgres://db:5432/main", want: "postgres://db:5432/main"},
		{name: "param named token", key: "@token", value: "abc", want: DefaultMaskValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FilterString(tt.key, tt.value))
		})
	}
}

type credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
	Internal string `json:"-"`
}

func TestFilterValue(t *testing.T) {
	f := NewSensitiveDataFilter(nil)

	assert.Equal(t, map[string]any{"user": "sa", "password": DefaultMaskValue},
		f.FilterValue("login", credentials{User: "sa", Password: "x", Internal: "i"}))
	assert.Equal(t, map[string]any{"user": "sa", "password": DefaultMaskValue},
		f.FilterValue("login", &credentials{User: "sa", Password: "x"}))
	assert.Equal(t, DefaultMaskValue, f.FilterValue("secret", 42))
	assert.Equal(t, []any{1, 2}, f.FilterValue("ids", []int{1, 2}))
	assert.Equal(t, []byte("raw"), f.FilterValue("blob", []byte("raw")))

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, now, f.FilterValue("created", now))
	assert.Nil(t, f.FilterValue("x", nil))
}

func TestFilterFields(t *testing.T) {
	f := NewSensitiveDataFilter(&FilterConfig{SensitiveFields: []string{"ssn"}, MaskValue: "[MASKED]"})
	got := f.FilterFields(map[string]any{
		":p__1": "a",
		":ssn":  "123-45-6789",
		"nested": map[string]any{
			"SSN": "1",
			"ok":  true,
		},
	})
	assert.Equal(t, map[string]any{
		":p__1":  "a",
		":ssn":   "[MASKED]",
		"nested": map[string]any{"SSN": "[MASKED]", "ok": true},
	}, got)
}
