package compiler

import (
	"reflect"
	"testing"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/expr"
	"github.com/gaborage/sqlexpr/metadata"
	"github.com/gaborage/sqlexpr/sqlerr"
	"github.com/gaborage/sqlexpr/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestInsertObject(t *testing.T) {
	c, buf := newCompiler(t, dialect.SQLServer)

	iv, err := c.Insert(expr.New(expr.Bind("Name", "a"), expr.Bind("Sex", 1)))
	require.NoError(t, err)

	assert.Equal(t, "(Name,Sex) VALUES (@p__1,@p__2)", iv.String())
	assert.Equal(t, map[string]any{"@p__1": "a", "@p__2": 1}, buf.Parameters().Map())
}

func TestInsertObjectSkipsNullAndGenerated(t *testing.T) {
	c, _ := newCompiler(t, dialect.SQLServer)

	iv, err := c.Insert(expr.New(expr.Bind("Id", 5), expr.Bind("Name", nil), expr.Bind("Sex", 2)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sex"}, iv.Columns)

	c, _ = newCompiler(t, dialect.SQLServer, statement.WithNullValueAssignment(true))
	iv, err = c.Insert(expr.New(expr.Bind("Name", nil), expr.Bind("Sex", 2)))
	require.NoError(t, err)
	assert.Equal(t, "(Name,Sex) VALUES (NULL,@p__1)", iv.String())
}

func TestInsertEntity(t *testing.T) {
	c, buf := newCompiler(t, dialect.SQLServer)

	iv, err := c.Insert(&UserInfo{Id: 9, Sex: 1, Email: "e@x", IsActive: true})
	require.NoError(t, err)

	assert.Equal(t, "(Sex,Email,IsActive) VALUES (@p__1,@p__2,@p__3)", iv.String())
	email, ok := buf.Parameters().Get("@p__2")
	require.True(t, ok)
	assert.Equal(t, &metadata.DataType{Name: "nvarchar", Size: 100}, email.DataType)
}

func TestInsertNullPolicyKeepsDeclarationOrder(t *testing.T) {
	c, _ := newCompiler(t, dialect.MySQL)
	iv, err := c.Insert(UserInfo{Name: strPtr("n"), Sex: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Sex", "Email", "IsActive"}, iv.Columns, "zero values are not null")
}

func TestInsertBatch(t *testing.T) {
	c, buf := newCompiler(t, dialect.SQLite)

	iv, err := c.Insert([]UserInfo{{Name: strPtr("a"), Sex: 1}, {Sex: 2}})
	require.NoError(t, err)

	assert.Equal(t,
		"(Name,Sex,Email,IsActive) VALUES (@p__1,@p__2,@p__3,@p__4),(NULL,@p__5,@p__6,@p__7)",
		iv.String())
	assert.Equal(t, 7, buf.Parameters().Len())

	_, err = c.Insert([]UserInfo{})
	assert.ErrorIs(t, err, sqlerr.ErrInvalidUsage)
}

func TestInsertOracleSequence(t *testing.T) {
	buf := statement.New(dialect.Oracle)
	c := New(buf, reflect.TypeOf(Ticket{}), WithResolver(metadata.NewResolver()))

	iv, err := c.Insert(Ticket{Memo: "m"})
	require.NoError(t, err)
	assert.Equal(t, "(Id,Memo) VALUES (SEQ_TICKET.NEXTVAL,:p__1)", iv.String())

	buf = statement.New(dialect.PostgreSQL)
	c = New(buf, reflect.TypeOf(Ticket{}), WithResolver(metadata.NewResolver()))
	iv, err = c.Insert(Ticket{Memo: "m"})
	require.NoError(t, err)
	assert.Equal(t, "(Memo) VALUES (:p__1)", iv.String())
}

func TestInsertErrors(t *testing.T) {
	var nilUser *UserInfo
	tests := []struct {
		name  string
		value any
		kind  error
	}{
		{name: "nil", value: nil, kind: sqlerr.ErrInvalidUsage},
		{name: "nil pointer", value: nilUser, kind: sqlerr.ErrInvalidUsage},
		{name: "scalar", value: 5, kind: sqlerr.ErrInvalidUsage},
		{name: "wrong entity", value: Account{UserId: 1}, kind: sqlerr.ErrInvalidUsage},
		{name: "unknown binding", value: expr.New(expr.Bind("Missing", 1)), kind: sqlerr.ErrInvalidUsage},
		{name: "only generated", value: expr.New(expr.Bind("Id", 1)), kind: sqlerr.ErrInvalidUsage},
		{name: "member expression", value: expr.Field("Name"), kind: sqlerr.ErrUnsupportedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCompiler(t, dialect.SQLServer)
			_, err := c.Insert(tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestUpdateObject(t *testing.T) {
	c, buf := newCompiler(t, dialect.SQLServer)

	sets, err := c.Update(expr.New(
		expr.Bind("Id", 3),
		expr.Bind("Sex", expr.Add(expr.Field("Sex"), 1)),
		expr.Bind("Name", nil),
		expr.Bind("Email", "e"),
	))
	require.NoError(t, err)

	assert.Equal(t, "Sex = Sex + @p__1,Email = @p__2", sets)
	email, _ := buf.Parameters().Get("@p__2")
	assert.NotNil(t, email.DataType)
}

func TestUpdateEntity(t *testing.T) {
	c, _ := newCompiler(t, dialect.PostgreSQL)
	sets, err := c.Update(UserInfo{Id: 1, Sex: 2})
	require.NoError(t, err)
	assert.Equal(t, "Sex = :p__1,Email = :p__2,IsActive = :p__3", sets)

	c, _ = newCompiler(t, dialect.PostgreSQL, statement.WithNullValueAssignment(true))
	sets, err = c.Update(&UserInfo{Id: 1, Sex: 2})
	require.NoError(t, err)
	assert.Equal(t, "Name = NULL,Sex = :p__1,Email = :p__2,IsActive = :p__3", sets)
}

func TestUpdateErrors(t *testing.T) {
	c, _ := newCompiler(t, dialect.SQLServer)

	_, err := c.Update(expr.New(expr.Bind("Id", 1)))
	assert.ErrorIs(t, err, sqlerr.ErrInvalidUsage)

	_, err = c.Update([]UserInfo{{}})
	assert.ErrorIs(t, err, sqlerr.ErrInvalidUsage)

	_, err = c.Update(nil)
	assert.ErrorIs(t, err, sqlerr.ErrInvalidUsage)

	_, err = c.Update(expr.Raw("Sex = 1"))
	assert.ErrorIs(t, err, sqlerr.ErrUnsupportedExpression)
}
