package metadata

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
)

// Naming derives fallback table and column names from Go identifiers.
type Naming int

const (
	// NamingNone uses Go names unchanged: UserInfo -> UserInfo.
	NamingNone Naming = iota
	// NamingSnake converts to snake_case: UserInfo -> user_info.
	NamingSnake
	// NamingPluralSnake converts to snake_case and pluralizes tables: UserInfo -> user_infos.
	NamingPluralSnake
)

// ParseNaming resolves a naming strategy from its configuration name.
func ParseNaming(name string) (Naming, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return NamingNone, nil
	case "snake":
		return NamingSnake, nil
	case "plural", "plural_snake":
		return NamingPluralSnake, nil
	default:
		return NamingNone, fmt.Errorf("unknown naming strategy %q", name)
	}
}

func (n Naming) table(name string) string {
	switch n {
	case NamingSnake:
		return inflect.Underscore(name)
	case NamingPluralSnake:
		return inflect.Pluralize(inflect.Underscore(name))
	default:
		return name
	}
}

func (n Naming) column(name string) string {
	if n == NamingNone {
		return name
	}
	return inflect.Underscore(name)
}
