package compiler

import (
	"regexp"
	"strings"

	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/sqlerr"
)

// Direction is a sort direction for OrderBy.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

var (
	directionPattern = regexp.MustCompile(`(?i)\b(ASC|DESC)\b`)
	quotedPattern    = regexp.MustCompile("\\[[^\\]]*\\]|`[^`]*`|\"[^\"]*\"|'[^']*'")
)

// HasDirection reports whether an order fragment already names ASC or DESC
// outside quoted identifiers and literals.
func HasDirection(sql string) bool {
	return directionPattern.MatchString(quotedPattern.ReplaceAllString(sql, " "))
}

// GroupBy compiles a field list: a member, an object of members, raw SQL or field names.
func (c *Compiler) GroupBy(e expr.Expr) (string, error) {
	fields, err := c.fieldList(e, "compiler.GroupBy")
	if err != nil {
		return "", err
	}
	return strings.Join(fields, ","), nil
}

// OrderBy compiles a field list with one direction per field. Missing directions
// default to ascending and extra directions are ignored. Raw fragments that already
// name a direction are used verbatim.
func (c *Compiler) OrderBy(e expr.Expr, dirs ...Direction) (string, error) {
	fields, err := c.fieldList(e, "compiler.OrderBy")
	if err != nil {
		return "", err
	}
	for i, f := range fields {
		if HasDirection(f) {
			continue
		}
		dir := Asc
		if i < len(dirs) {
			dir = dirs[i]
		}
		fields[i] = f + " " + dir.String()
	}
	return strings.Join(fields, ","), nil
}

func (c *Compiler) fieldList(e expr.Expr, op string) ([]string, error) {
	e = body(e)
	switch v := e.(type) {
	case nil:
		return nil, sqlerr.InvalidUsage(op, "field list is required")
	case *expr.Member:
		col, _, err := c.Column(v)
		if err != nil {
			return nil, err
		}
		return []string{col}, nil
	case *expr.Object:
		fields := make([]string, 0, len(v.Bindings))
		for _, b := range v.Bindings {
			f, err := c.value(b.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
		return fields, nil
	case *expr.RawSQL:
		return []string{v.SQL}, nil
	case *expr.NameList:
		fields := make([]string, 0, len(v.Names))
		for _, name := range v.Names {
			col, _, err := c.rootColumn(name)
			if err != nil {
				return nil, err
			}
			fields = append(fields, col)
		}
		return fields, nil
	case *expr.Call:
		f, err := c.value(v)
		if err != nil {
			return nil, err
		}
		return []string{f}, nil
	}
	return nil, sqlerr.UnsupportedExpression(op, describe(e))
}
