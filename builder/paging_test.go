package builder

import (
	"strings"
	"testing"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTop(t *testing.T) {
	tests := []struct {
		name     string
		dialect  dialect.Dialect
		distinct bool
		want     string
	}{
		{name: "sqlserver", dialect: dialect.SQLServer, want: "SELECT TOP 5 * FROM UserInfo WHERE Sex = @p__1"},
		{name: "sqlserver distinct", dialect: dialect.SQLServer, distinct: true, want: "SELECT DISTINCT TOP 5 * FROM UserInfo WHERE Sex = @p__1"},
		{name: "oracle", dialect: dialect.Oracle, want: "SELECT * FROM (SELECT * FROM UserInfo WHERE Sex = :p__1) T WHERE ROWNUM <= 5"},
		{name: "mysql", dialect: dialect.MySQL, want: "SELECT * FROM UserInfo WHERE Sex = ?p__1 LIMIT 5 OFFSET 0"},
		{name: "sqlite distinct", dialect: dialect.SQLite, distinct: true, want: "SELECT DISTINCT * FROM UserInfo WHERE Sex = @p__1 LIMIT 5 OFFSET 0"},
		{name: "postgresql", dialect: dialect.PostgreSQL, want: "SELECT * FROM UserInfo WHERE Sex = :p__1 LIMIT 5 OFFSET 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Select[UserInfo](nil, WithDialect(tt.dialect)).Where(expr.Eq(expr.Field("Sex"), 1))
			if tt.distinct {
				b.Distinct()
			}
			assert.Equal(t, tt.want, b.Top(5).SQL())
		})
	}
}

func TestTopThenWhereOracle(t *testing.T) {
	u := expr.Of[UserInfo]("u")
	sql, params, err := Select[UserInfo](nil, WithDialect(dialect.Oracle)).
		Top(5).
		Where(expr.Gt(u.Field("Id"), 2)).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM (SELECT * FROM UserInfo) T WHERE ROWNUM <= 5 AND Id > :p__1", sql)
	assert.Equal(t, 1, strings.Count(sql, "WHERE"))
	assert.Equal(t, map[string]any{":p__1": 2}, params.Map())
}

func TestTopErrors(t *testing.T) {
	assert.ErrorIs(t, Select[UserInfo](nil).Top(0).Err(), sqlerr.ErrInvalidUsage)
	assert.ErrorIs(t, New[UserInfo]().Top(1).Err(), sqlerr.ErrInvalidUsage)
	assert.ErrorIs(t, Delete[UserInfo]().Distinct().Err(), sqlerr.ErrInvalidUsage)
}

func TestPage(t *testing.T) {
	const count = "SELECT COUNT(*) AS TOTAL FROM (SELECT * FROM UserInfo) AS T;"
	tests := []struct {
		name  string
		opts  []Option
		size  int
		index int
		order string
		want  string
	}{
		{
			name: "sqlserver legacy", opts: []Option{WithServerVersion("9.0")},
			size: 10, index: 3, order: "Id",
			want: count + "SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY Id ASC) AS ROWNUMBER, * FROM (SELECT * FROM UserInfo) AS X) AS T WHERE ROWNUMBER BETWEEN 21 AND 30",
		},
		{
			name: "sqlserver legacy unordered", opts: []Option{WithServerVersion("10.50.1600")},
			size: 10, index: 1,
			want: count + "SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY (SELECT 0)) AS ROWNUMBER, * FROM (SELECT * FROM UserInfo) AS X) AS T WHERE ROWNUMBER BETWEEN 1 AND 10",
		},
		{
			name: "sqlserver",
			size: 10, index: 3, order: "Id",
			want: count + "SELECT * FROM UserInfo ORDER BY Id ASC OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name: "sqlserver unordered", opts: []Option{WithServerVersion("15.0")},
			size: 10, index: 1,
			want: count + "SELECT * FROM UserInfo ORDER BY (SELECT 0) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name: "oracle", opts: []Option{WithDialect(dialect.Oracle)},
			size: 10, index: 2, order: "Id DESC",
			want: "SELECT COUNT(*) AS TOTAL FROM (SELECT * FROM UserInfo) T;SELECT * FROM UserInfo ORDER BY Id DESC OFFSET 10 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name: "oracle legacy", opts: []Option{WithDialect(dialect.Oracle), WithServerVersion("11.2.0.4")},
			size: 10, index: 2, order: "Id",
			want: "SELECT COUNT(*) AS TOTAL FROM (SELECT * FROM UserInfo) T;SELECT * FROM (SELECT X.*,ROWNUM AS ROWNUMBER FROM (SELECT * FROM UserInfo ORDER BY Id ASC) X WHERE ROWNUM <= 20) T WHERE ROWNUMBER >= 11",
		},
		{
			name: "mysql", opts: []Option{WithDialect(dialect.MySQL)},
			size: 10, index: 2, order: "Id",
			want: count + "SELECT * FROM UserInfo ORDER BY Id ASC LIMIT 10 OFFSET 10",
		},
		{
			name: "sqlite unordered", opts: []Option{WithDialect(dialect.SQLite)},
			size: 25, index: 1,
			want: count + "SELECT * FROM UserInfo LIMIT 25 OFFSET 0",
		},
		{
			name: "postgresql ignores version", opts: []Option{WithDialect(dialect.PostgreSQL), WithServerVersion("9.6")},
			size: 5, index: 4, order: "Name desc",
			want: count + "SELECT * FROM UserInfo ORDER BY Name desc LIMIT 5 OFFSET 15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := Select[UserInfo](nil, tt.opts...).Page(tt.size, tt.index, tt.order).Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestPageCountQueryIsStableAcrossPages(t *testing.T) {
	for _, d := range []dialect.Dialect{dialect.SQLServer, dialect.Oracle, dialect.MySQL, dialect.SQLite, dialect.PostgreSQL} {
		t.Run(d.String(), func(t *testing.T) {
			var counts []string
			for page := 1; page <= 3; page++ {
				sql := Select[UserInfo](nil, WithDialect(d)).
					Where(expr.Eq(expr.Field("IsActive"), true)).
					Page(15, page, "Id").
					SQL()
				parts := strings.SplitN(sql, ";", 2)
				require.Len(t, parts, 2)
				counts = append(counts, parts[0])
			}
			assert.Equal(t, counts[0], counts[1])
			assert.Equal(t, counts[1], counts[2])
		})
	}
}

func TestPageOptions(t *testing.T) {
	sql := Select[UserInfo](nil).Page(10, 1, "Id", PageCount("COUNT_BIG(*)")).SQL()
	assert.True(t, strings.HasPrefix(sql, "SELECT COUNT_BIG(*) AS TOTAL FROM (SELECT * FROM UserInfo) AS T;"))

	sql = Select[UserInfo](nil, WithServerVersion("9.0")).Page(10, 1, "Id", PageVersion("")).SQL()
	assert.Contains(t, sql, "OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY")

	sql = Select[UserInfo](nil).Page(10, 1, "Id", PageVersion("10.0")).SQL()
	assert.Contains(t, sql, "ROWNUMBER BETWEEN 1 AND 10")
}

func TestPageQuery(t *testing.T) {
	query := "SELECT Id FROM UserInfo WHERE Sex = @sex AND IsActive = @active"
	sql, params, err := New[UserInfo](WithDialect(dialect.SQLite)).
		Page(10, 2, "Id", PageQuery(query, map[string]any{"@sex": 1, "@active": true})).
		Build()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS TOTAL FROM ("+query+") AS T;"+query+" ORDER BY Id ASC LIMIT 10 OFFSET 10",
		sql)
	assert.Equal(t, []string{"@active", "@sex"}, params.Names())
}

func TestPageQueryMatchesWholeTokens(t *testing.T) {
	query := "SELECT * FROM T WHERE valid = @id"
	b := New[UserInfo](WithDialect(dialect.SQLite)).
		Page(10, 1, "Id", PageQuery(query, map[string]any{"id": 1}))

	sql, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(sql, "valid = ?"))
	assert.NotContains(t, sql, "@")
	assert.Equal(t, []any{1, 1}, args)

	_, params, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"@id"}, params.Names())
}

func TestPageByWith(t *testing.T) {
	cte := "WITH Active AS (SELECT * FROM UserInfo WHERE IsActive = 1)"
	tests := []struct {
		name  string
		opts  []Option
		query string
		size  int
		index int
		order string
		want  string
	}{
		{
			name: "sqlite", opts: []Option{WithDialect(dialect.SQLite)},
			query: cte, size: 5, index: 2, order: "Id",
			want: cte + " SELECT COUNT(*) AS TOTAL FROM Active;" +
				"WITH Active AS (SELECT * FROM UserInfo WHERE IsActive = 1 ORDER BY Id ASC LIMIT 5 OFFSET 5) SELECT * FROM Active",
		},
		{
			name: "sqlserver", opts: []Option{},
			query: cte, size: 5, index: 1,
			want: cte + " SELECT COUNT(*) AS TOTAL FROM Active;" +
				"WITH Active AS (SELECT * FROM UserInfo WHERE IsActive = 1 ORDER BY (SELECT 0) OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY) SELECT * FROM Active",
		},
		{
			name: "sqlserver legacy", opts: []Option{WithServerVersion("10.0")},
			query: cte, size: 10, index: 1, order: "Id",
			want: cte + " SELECT COUNT(*) AS TOTAL FROM Active;" +
				cte + " SELECT * FROM (SELECT ROW_NUMBER() OVER(ORDER BY Id ASC) AS ROWNUMBER, * FROM (SELECT * FROM Active) AS X) AS T WHERE ROWNUMBER BETWEEN 1 AND 10",
		},
		{
			name: "oracle legacy", opts: []Option{WithDialect(dialect.Oracle), WithServerVersion("11.2")},
			query: cte, size: 10, index: 2, order: "Id",
			want: cte + " SELECT COUNT(*) AS TOTAL FROM Active;" +
				cte + " SELECT * FROM (SELECT X.*,ROWNUM AS ROWNUMBER FROM (SELECT * FROM Active ORDER BY Id ASC) X WHERE ROWNUM <= 20) T WHERE ROWNUMBER >= 11",
		},
		{
			name: "last common table expression", opts: []Option{WithDialect(dialect.PostgreSQL)},
			query: "WITH A AS (SELECT Id FROM UserInfo), B AS (SELECT * FROM A)", size: 3, index: 1,
			want: "WITH A AS (SELECT Id FROM UserInfo), B AS (SELECT * FROM A) SELECT COUNT(*) AS TOTAL FROM B;" +
				"WITH A AS (SELECT Id FROM UserInfo), B AS (SELECT * FROM A LIMIT 3 OFFSET 0) SELECT * FROM B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := New[UserInfo](tt.opts...).
				PageByWith(tt.size, tt.index, tt.order, PageQuery(tt.query, nil)).
				Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestPageByWithWrapsPlainStatements(t *testing.T) {
	sql := Select[UserInfo](nil, WithDialect(dialect.SQLite)).PageByWith(5, 1, "").SQL()
	assert.Equal(t,
		"WITH T AS (SELECT * FROM UserInfo) SELECT COUNT(*) AS TOTAL FROM T;WITH T AS (SELECT * FROM UserInfo LIMIT 5 OFFSET 0) SELECT * FROM T",
		sql)
}

func TestPageByWithMatchesPageSuffix(t *testing.T) {
	for _, d := range []dialect.Dialect{dialect.SQLServer, dialect.Oracle, dialect.MySQL, dialect.SQLite, dialect.PostgreSQL} {
		t.Run(d.String(), func(t *testing.T) {
			inner := Select[UserInfo](nil, WithDialect(d)).SQL()

			paged := Select[UserInfo](nil, WithDialect(d)).Page(20, 3, "Id").SQL()
			data := strings.SplitN(paged, ";", 2)[1]
			require.True(t, strings.HasPrefix(data, inner))
			suffix := strings.TrimPrefix(data, inner)

			withPaged := Select[UserInfo](nil, WithDialect(d)).PageByWith(20, 3, "Id").SQL()
			assert.Contains(t, withPaged, suffix+") SELECT * FROM T")
		})
	}
}

func TestPageErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder[UserInfo]
	}{
		{name: "zero size", b: Select[UserInfo](nil).Page(0, 1, "Id")},
		{name: "zero index", b: Select[UserInfo](nil).Page(10, 0, "Id")},
		{name: "nothing to page", b: New[UserInfo]().Page(10, 1, "Id")},
		{name: "with negative size", b: Select[UserInfo](nil).PageByWith(-1, 1, "Id")},
		{name: "cte without parenthesis", b: New[UserInfo](WithDialect(dialect.SQLite)).PageByWith(5, 1, "", PageQuery("WITH broken", nil))},
		{name: "after failure", b: Select[UserInfo](expr.Field("Missing")).Page(10, 1, "Id")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.b.Err(), sqlerr.ErrInvalidUsage)
		})
	}
}
