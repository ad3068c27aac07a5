package builder

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gaborage/sqlexpr/compiler"
	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/sqlerr"
)

const defaultCountSyntax = "COUNT(*)"

// Top limits the statement to n rows: SELECT TOP n on SQL Server, a ROWNUM filter
// around the statement on Oracle, LIMIT n OFFSET 0 elsewhere.
func (b *Builder[T]) Top(n int) *Builder[T] {
	const op = "builder.Top"
	if b.failed() {
		return b
	}
	if n < 1 {
		return b.fail(sqlerr.InvalidUsage(op, "row count must be positive, got %d", n))
	}
	if b.buf.Len() == 0 {
		return b.fail(sqlerr.InvalidUsage(op, "no statement to limit"))
	}

	switch b.opts.dialect {
	case dialect.SQLServer:
		if !b.buf.InsertTop(n) {
			return b.fail(sqlerr.InvalidUsage(op, "statement has no SELECT"))
		}
	case dialect.Oracle:
		b.buf.Wrap("SELECT * FROM (", ") T WHERE ROWNUM <= "+strconv.Itoa(n))
		b.hasWhere = true
	default:
		b.buf.Append(" LIMIT ", strconv.Itoa(n), " OFFSET 0")
	}
	return b
}

// Distinct rewrites the first SELECT to SELECT DISTINCT.
func (b *Builder[T]) Distinct() *Builder[T] {
	if b.failed() {
		return b
	}
	if !b.buf.InsertDistinct() {
		return b.fail(sqlerr.InvalidUsage("builder.Distinct", "statement has no SELECT"))
	}
	return b
}

type pageOptions struct {
	sql         string
	params      map[string]any
	countSyntax string
	version     string
	versionSet  bool
}

// PageOption customizes Page and PageByWith.
type PageOption func(*pageOptions)

// PageQuery pages sql instead of the builder's statement. params are bound under
// their names, prefixed with the dialect's parameter prefix when missing.
func PageQuery(sql string, params map[string]any) PageOption {
	return func(o *pageOptions) {
		o.sql = sql
		o.params = params
	}
}

// PageCount replaces COUNT(*) in the count query.
func PageCount(syntax string) PageOption {
	return func(o *pageOptions) {
		if syntax != "" {
			o.countSyntax = syntax
		}
	}
}

// PageVersion overrides the builder's server version for this call.
func PageVersion(v string) PageOption {
	return func(o *pageOptions) {
		o.version = v
		o.versionSet = true
	}
}

// Page turns the statement into the batch "<count query>;<page query>".
//
// The count query is "SELECT COUNT(*) AS TOTAL FROM (<inner>) AS T". The page query
// uses OFFSET/FETCH on SQL Server above 10 and Oracle above 11, ROW_NUMBER() or
// ROWNUM subqueries on older releases, and LIMIT/OFFSET elsewhere. orderField is
// used verbatim when it names a direction, otherwise ASC is appended; SQL Server
// orders by (SELECT 0) when it is empty.
func (b *Builder[T]) Page(pageSize, pageIndex int, orderField string, opts ...PageOption) *Builder[T] {
	const op = "builder.Page"
	inner, po, err := b.pageInput(op, pageSize, pageIndex, opts)
	if err != nil {
		return b.fail(err)
	}

	p := b.pager(pageSize, pageIndex, orderField, po)
	count := "SELECT " + po.countSyntax + " AS TOTAL FROM (" + inner + ")" + p.subqueryAlias("T")

	var data string
	if p.legacy {
		data = p.wrap(inner)
	} else {
		data = inner + p.suffix()
	}
	b.buf.SetText(count + ";" + data)
	return b
}

var cteNamePattern = regexp.MustCompile(`(?i)(\w+)\s+AS\s*\(`)

// PageByWith pages a common-table-expression statement. A statement that does not
// start with WITH is wrapped as "WITH T AS (<sql>)". The paging clause is spliced
// before the CTE's closing parenthesis and matches the one Page produces.
func (b *Builder[T]) PageByWith(pageSize, pageIndex int, orderField string, opts ...PageOption) *Builder[T] {
	const op = "builder.PageByWith"
	cte, po, err := b.pageInput(op, pageSize, pageIndex, opts)
	if err != nil {
		return b.fail(err)
	}

	name := "T"
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(cte)), "WITH") {
		if m := cteNamePattern.FindAllStringSubmatch(cte, -1); len(m) > 0 {
			name = m[len(m)-1][1]
		}
	} else {
		cte = "WITH T AS (" + cte + ")"
	}

	p := b.pager(pageSize, pageIndex, orderField, po)
	count := cte + " SELECT " + po.countSyntax + " AS TOTAL FROM " + name
	selectAll := "SELECT * FROM " + name

	var data string
	if p.legacy {
		data = cte + " " + p.wrap(selectAll)
	} else {
		end := strings.LastIndex(cte, ")")
		if end < 0 {
			return b.fail(sqlerr.InvalidUsage(op, "common table expression has no closing parenthesis"))
		}
		data = cte[:end] + p.suffix() + cte[end:] + " " + selectAll
	}
	b.buf.SetText(count + ";" + data)
	return b
}

func (b *Builder[T]) pageInput(op string, pageSize, pageIndex int, opts []PageOption) (string, pageOptions, error) {
	po := pageOptions{countSyntax: defaultCountSyntax}
	if b.failed() {
		return "", po, b.err
	}
	for _, opt := range opts {
		opt(&po)
	}
	if pageSize < 1 || pageIndex < 1 {
		return "", po, sqlerr.InvalidUsage(op, "page size and index must be positive, got %d and %d", pageSize, pageIndex)
	}

	inner := b.buf.Text()
	if po.sql != "" {
		inner = po.sql
		names := make([]string, 0, len(po.params))
		for name := range po.params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.buf.Parameters().Add(b.buf.ParameterName(name), po.params[name], nil)
		}
	}
	if strings.TrimSpace(inner) == "" {
		return "", po, sqlerr.InvalidUsage(op, "no query to page")
	}
	return inner, po, nil
}

// pager renders the dialect's paging clauses for one page.
type pager struct {
	dialect dialect.Dialect
	legacy  bool
	order   string
	size    int
	index   int
}

func (b *Builder[T]) pager(pageSize, pageIndex int, orderField string, po pageOptions) pager {
	version := b.opts.serverVersion
	if po.versionSet {
		version = po.version
	}
	order := strings.TrimSpace(orderField)
	if order != "" && !compiler.HasDirection(order) {
		order += " " + compiler.Asc.String()
	}
	return pager{
		dialect: b.opts.dialect,
		legacy:  b.opts.dialect.LegacyPaging(version),
		order:   order,
		size:    pageSize,
		index:   pageIndex,
	}
}

func (p pager) orderClause() string {
	if p.order == "" {
		return ""
	}
	return " ORDER BY " + p.order
}

// suffix is the clause appended to the inner query on current releases.
func (p pager) suffix() string {
	offset := p.size * (p.index - 1)
	switch p.dialect {
	case dialect.SQLServer:
		order := p.order
		if order == "" {
			order = "(SELECT 0)"
		}
		return fmt.Sprintf(" ORDER BY %s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", order, offset, p.size)
	case dialect.Oracle:
		return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", p.orderClause(), offset, p.size)
	default:
		return fmt.Sprintf("%s LIMIT %d OFFSET %d", p.orderClause(), p.size, offset)
	}
}

// wrap emulates paging around inner on SQL Server 10 and Oracle 11 or older.
func (p pager) wrap(inner string) string {
	if p.dialect == dialect.Oracle {
		return fmt.Sprintf("SELECT * FROM (SELECT X.*,ROWNUM AS ROWNUMBER FROM (%s%s) X WHERE ROWNUM <= %d) T WHERE ROWNUMBER >= %d",
			inner, p.orderClause(), p.size*p.index, p.size*(p.index-1)+1)
	}
	order := p.order
	if order == "" {
		order = "(SELECT 0)"
	}
	return fmt.Sprintf("SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY %s) AS ROWNUMBER, * FROM (%s) AS X) AS T WHERE ROWNUMBER BETWEEN %d AND %d",
		order, inner, p.size*(p.index-1)+1, p.size*p.index)
}

// subqueryAlias renders a derived-table alias. Oracle rejects AS before table aliases.
func (p pager) subqueryAlias(name string) string {
	if p.dialect == dialect.Oracle {
		return " " + name
	}
	return " AS " + name
}
