package builder

import (
	"testing"

	"github.com/gaborage/sqlexpr/compiler"
	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMultiTableProjection(t *testing.T) {
	u := expr.Of[UserInfo]("u")
	a := expr.Of[Account]("a")

	sql, params, err := Select[UserInfo](expr.Pick(u.Field("Name"), a.Field("Balance"))).
		InnerJoin(expr.Eq(u.Field("Id"), a.Field("UserId"))).
		Where(expr.Gt(a.Field("Balance"), 100)).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "SELECT u.Name,a.Balance FROM UserInfo AS u INNER JOIN Account AS a ON u.Id = a.UserId WHERE a.Balance > @p__1", sql)
	assert.Equal(t, map[string]any{"@p__1": 100}, params.Map())
}

func TestSelectUnnamedParametersGetDefaultAliases(t *testing.T) {
	u := expr.Of[UserInfo]("")
	a := expr.Of[Account]("")

	sql := Select[UserInfo](expr.Pick(u.Field("Id"), a.Field("Balance"))).SQL()
	assert.Equal(t, "SELECT t.Id,t1.Balance FROM UserInfo AS t", sql)
}

func TestJoinKinds(t *testing.T) {
	u := expr.Of[UserInfo]("u")
	a := expr.Of[Account]("a")
	on := expr.Eq(u.Field("Id"), a.Field("UserId"))

	tests := []struct {
		name string
		join func(*Builder[UserInfo]) *Builder[UserInfo]
		want string
	}{
		{name: "inner", join: func(b *Builder[UserInfo]) *Builder[UserInfo] { return b.InnerJoin(on) }, want: "INNER"},
		{name: "left", join: func(b *Builder[UserInfo]) *Builder[UserInfo] { return b.LeftJoin(on) }, want: "LEFT"},
		{name: "right", join: func(b *Builder[UserInfo]) *Builder[UserInfo] { return b.RightJoin(on) }, want: "RIGHT"},
		{name: "full", join: func(b *Builder[UserInfo]) *Builder[UserInfo] { return b.FullJoin(on) }, want: "FULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql := tt.join(Select[UserInfo](nil)).SQL()
			assert.Equal(t, "SELECT * FROM UserInfo AS u "+tt.want+" JOIN Account AS a ON u.Id = a.UserId", sql)
		})
	}
}

func TestJoinChainPicksUnjoinedTable(t *testing.T) {
	u := expr.Of[UserInfo]("u")
	a := expr.Of[Account]("a")
	d := expr.Of[Address]("d")

	sql := Select[UserInfo](nil, WithDialect(dialect.PostgreSQL)).
		InnerJoin(expr.Eq(u.Field("Id"), a.Field("UserId"))).
		LeftJoin(expr.Eq(a.Field("UserId"), d.Field("UserId"))).
		Where(expr.Eq(d.Field("City"), "Oslo")).
		SQL()

	assert.Equal(t,
		"SELECT * FROM UserInfo AS u INNER JOIN Account AS a ON u.Id = a.UserId LEFT JOIN Address AS d ON a.UserId = d.UserId WHERE d.City = :p__1",
		sql)
}

func TestJoinQuotesTablesWhenFormatting(t *testing.T) {
	u := expr.Of[UserInfo]("u")
	a := expr.Of[Account]("a")

	sql := Select[UserInfo](nil, WithDialect(dialect.MySQL), WithFormat(true)).
		InnerJoin(expr.Eq(u.Field("Id"), a.Field("UserId"))).
		SQL()
	assert.Equal(t, "SELECT * FROM `UserInfo` AS `u` INNER JOIN `Account` AS `a` ON `u`.`Id` = `a`.`UserId`", sql)
}

func TestJoinErrors(t *testing.T) {
	u := expr.Of[UserInfo]("u")
	a := expr.Of[Account]("a")

	tests := []struct {
		name string
		b    *Builder[UserInfo]
	}{
		{name: "no other entity", b: Select[UserInfo](nil).InnerJoin(expr.Eq(u.Field("Id"), u.Field("Sex")))},
		{name: "without select", b: Delete[UserInfo]().InnerJoin(expr.Eq(u.Field("Id"), a.Field("UserId")))},
		{name: "nil condition", b: Select[UserInfo](nil).InnerJoin(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.b.Err(), sqlerr.ErrInvalidUsage)
		})
	}
}

func TestWhereSequencing(t *testing.T) {
	sex := expr.Field("Sex")
	tests := []struct {
		name string
		b    *Builder[UserInfo]
		want string
	}{
		{
			name: "and",
			b:    Select[UserInfo](nil).Where(expr.Eq(sex, 1)).Where(expr.Eq(expr.Field("IsActive"), true)),
			want: "SELECT * FROM UserInfo WHERE Sex = @p__1 AND IsActive = @p__2",
		},
		{
			name: "or parenthesizes compound",
			b:    Select[UserInfo](nil).Where(expr.Eq(sex, 1)).OrWhere(expr.Or(expr.Eq(sex, 2), expr.Eq(sex, 3))),
			want: "SELECT * FROM UserInfo WHERE Sex = @p__1 OR (Sex = @p__2 OR Sex = @p__3)",
		},
		{
			name: "or opens the clause",
			b:    Select[UserInfo](nil).OrWhere(expr.Eq(sex, 1)),
			want: "SELECT * FROM UserInfo WHERE Sex = @p__1",
		},
		{
			name: "and where with compound",
			b:    Select[UserInfo](nil).Where(expr.Ne(expr.Field("Name"), nil)).AndWhere(expr.Or(expr.Eq(sex, 1), expr.Eq(sex, 2))),
			want: "SELECT * FROM UserInfo WHERE Name IS NOT NULL AND (Sex = @p__1 OR Sex = @p__2)",
		},
		{
			name: "literal true adds nothing",
			b:    Select[UserInfo](nil).Where(expr.Const(true)).Where(expr.Eq(1, 1)),
			want: "SELECT * FROM UserInfo",
		},
		{
			name: "literal false",
			b:    Select[UserInfo](nil).Where(expr.Const(false)),
			want: "SELECT * FROM UserInfo WHERE 1 = 0",
		},
		{
			name: "conditional variants",
			b: Select[UserInfo](nil).
				WhereIf(false, expr.Eq(sex, 1)).
				AndWhereIf(true, expr.Eq(sex, 2)).
				OrWhereIf(false, expr.Eq(sex, 3)).
				OrWhereIf(true, expr.Eq(sex, 4)),
			want: "SELECT * FROM UserInfo WHERE Sex = @p__1 OR Sex = @p__2",
		},
		{
			name: "raw tail with where",
			b:    Select[UserInfo](nil).AppendSQL(" WHERE IsActive = 1").Where(expr.Eq(sex, 1)),
			want: "SELECT * FROM UserInfo WHERE IsActive = 1 AND Sex = @p__1",
		},
		{
			name: "raw tail without where",
			b:    Select[UserInfo](nil).AppendSQL(" WITH (NOLOCK)").Where(expr.Eq(sex, 1)),
			want: "SELECT * FROM UserInfo WITH (NOLOCK) WHERE Sex = @p__1",
		},
		{
			name: "delete",
			b:    Delete[UserInfo]().Where(expr.Le(sex, 0)),
			want: "DELETE FROM UserInfo WHERE Sex <= @p__1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := tt.b.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
		})
	}
}

func TestWhereExplicitFlagWins(t *testing.T) {
	b := Select[UserInfo](nil)
	b.Buffer().Append(" WHERE IsActive = 1")
	b.Where(expr.Eq(expr.Field("Sex"), 1), true)
	assert.Equal(t, "SELECT * FROM UserInfo WHERE IsActive = 1 AND Sex = @p__1", b.SQL())

	b = Select[UserInfo](nil).AppendSQL(" WHERE IsActive = 1")
	b.Where(expr.Eq(expr.Field("Sex"), 1), false)
	assert.Equal(t, "SELECT * FROM UserInfo WHERE IsActive = 1 WHERE Sex = @p__1", b.SQL())
}

func TestWhereEvaluatesClosuresOnce(t *testing.T) {
	calls := 0
	minSex := expr.Closure(func() any {
		calls++
		return 1
	})

	sql, params, err := Select[UserInfo](nil).Where(expr.Ge(expr.Field("Sex"), minSex)).Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM UserInfo WHERE Sex >= @p__1", sql)
	assert.Equal(t, map[string]any{"@p__1": 1}, params.Map())
	assert.Equal(t, 1, calls)
}

func TestWhereErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder[UserInfo]
		kind error
	}{
		{name: "insert", b: Insert[UserInfo](UserInfo{Sex: 1}).Where(expr.Eq(expr.Field("Sex"), 1)), kind: sqlerr.ErrInvalidUsage},
		{name: "unknown field", b: Select[UserInfo](nil).Where(expr.Eq(expr.Field("Age"), 1)), kind: sqlerr.ErrInvalidUsage},
		{name: "non boolean", b: Select[UserInfo](nil).Where(expr.Field("Sex")), kind: sqlerr.ErrUnsupportedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.b.Err(), tt.kind)
		})
	}
}

func TestWithKey(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		params map[string]any
		build  func() (string, map[string]any, error)
	}{
		{
			name:   "delete by value",
			sql:    "DELETE FROM UserInfo WHERE Id = @p__1",
			params: map[string]any{"@p__1": 2},
			build:  build(Delete[UserInfo]().WithKey(2, 1)),
		},
		{
			name:   "select by entity",
			sql:    "SELECT * FROM UserInfo WHERE Id = @p__1",
			params: map[string]any{"@p__1": 7},
			build:  build(Select[UserInfo](nil).WithKey(UserInfo{Id: 7})),
		},
		{
			name:   "select by entity pointer after where",
			sql:    "SELECT * FROM UserInfo WHERE Sex = @p__1 AND Id = @p__2",
			params: map[string]any{"@p__1": 1, "@p__2": 7},
			build:  build(Select[UserInfo](nil).Where(expr.Eq(expr.Field("Sex"), 1)).WithKey(&UserInfo{Id: 7})),
		},
		{
			name:   "update uses its entity",
			sql:    "UPDATE UserInfo SET Sex = @p__1,Email = @p__2,IsActive = @p__3 WHERE Id = @p__4",
			params: map[string]any{"@p__1": 1, "@p__2": "e", "@p__3": false, "@p__4": 3},
			build:  build(Update[UserInfo](&UserInfo{Id: 3, Sex: 1, Email: "e"}).WithKey()),
		},
		{
			name:   "composite key",
			sql:    "DELETE FROM Membership WHERE GroupId = @p__1 AND UserId = @p__2",
			params: map[string]any{"@p__1": 4, "@p__2": 9},
			build:  build(Delete[Membership]().WithKey(4, 9, 100)),
		},
		{
			name:   "oracle",
			sql:    "DELETE FROM UserInfo WHERE Id = :p__1",
			params: map[string]any{":p__1": 2},
			build:  build(Delete[UserInfo](WithDialect(dialect.Oracle)).WithKey(2)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func build[T any](b *Builder[T]) func() (string, map[string]any, error) {
	return func() (string, map[string]any, error) {
		sql, params, err := b.Build()
		if err != nil {
			return "", nil, err
		}
		return sql, params.Map(), nil
	}
}

func TestWithKeyErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "insert", err: Insert[UserInfo](UserInfo{Sex: 1}).WithKey(1).Err()},
		{name: "aggregate", err: Count[UserInfo](nil).WithKey(1).Err()},
		{name: "no primary key", err: Delete[AuditEntry]().WithKey(1).Err()},
		{name: "null key", err: Delete[UserInfo]().WithKey(nil).Err()},
		{name: "no values", err: Delete[UserInfo]().WithKey().Err()},
		{name: "update object without values", err: Update[UserInfo](expr.New(expr.Bind("Sex", 1))).WithKey().Err()},
		{name: "too few values", err: Delete[Membership]().WithKey(4).Err()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.ErrorIs(t, tt.err, sqlerr.ErrInvalidUsage)
		})
	}
}

func TestGroupByHavingOrderBy(t *testing.T) {
	sql, params, err := Select[UserInfo](expr.New(
		expr.Bind("Sex", expr.Field("Sex")),
		expr.Bind("Total", expr.Count()),
	)).
		Where(expr.Eq(expr.Field("IsActive"), true)).
		GroupBy(expr.Field("Sex")).
		Having(expr.Gt(expr.Count(), 1)).
		OrderBy(expr.Field("Sex"), compiler.Desc).
		Build()

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT Sex,COUNT(*) AS Total FROM UserInfo WHERE IsActive = @p__1 GROUP BY Sex HAVING COUNT(*) > @p__2 ORDER BY Sex DESC",
		sql)
	assert.Equal(t, map[string]any{"@p__1": true, "@p__2": 1}, params.Map())
}

func TestOrderByDefaultsToAscending(t *testing.T) {
	sql := Select[UserInfo](nil).OrderBy(expr.Names("Name", "Id"), compiler.Desc).SQL()
	assert.Equal(t, "SELECT * FROM UserInfo ORDER BY Name DESC,Id ASC", sql)
}

func TestSelectStartsOver(t *testing.T) {
	b := Select[UserInfo](nil).Where(expr.Eq(expr.Field("Sex"), 1))
	b.Select(expr.Field("Id")).Where(expr.Eq(expr.Field("Sex"), 2))

	sql, params, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id FROM UserInfo WHERE Sex = @p__1", sql)
	assert.Equal(t, map[string]any{"@p__1": 2}, params.Map())
}
