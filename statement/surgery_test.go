package statement

import (
	"testing"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/stretchr/testify/assert"
)

func TestInsertTop(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{name: "plain", sql: selectUsers, want: "SELECT TOP 5 Id,Name FROM UserInfo"},
		{name: "distinct", sql: "SELECT DISTINCT Id FROM UserInfo", want: "SELECT DISTINCT TOP 5 Id FROM UserInfo"},
		{name: "first match only", sql: "SELECT Id FROM (SELECT Id FROM UserInfo) T", want: "SELECT TOP 5 Id FROM (SELECT Id FROM UserInfo) T"},
		{name: "distinct subquery", sql: "SELECT Id FROM (SELECT DISTINCT Id FROM UserInfo) T", want: "SELECT TOP 5 Id FROM (SELECT DISTINCT Id FROM UserInfo) T"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(dialect.SQLServer)
			b.Append(tt.sql)
			assert.True(t, b.InsertTop(5))
			assert.Equal(t, tt.want, b.Text())
		})
	}
}

func TestInsertDistinct(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{name: "plain", sql: selectUsers, want: "SELECT DISTINCT Id,Name FROM UserInfo"},
		{name: "already distinct", sql: "SELECT DISTINCT Id FROM UserInfo", want: "SELECT DISTINCT Id FROM UserInfo"},
		{name: "distinct subquery", sql: "SELECT Id FROM UserInfo WHERE Id IN (SELECT DISTINCT UserId FROM Account)", want: "SELECT DISTINCT Id FROM UserInfo WHERE Id IN (SELECT DISTINCT UserId FROM Account)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(dialect.MySQL)
			b.Append(tt.sql)
			assert.True(t, b.InsertDistinct())
			assert.True(t, b.InsertDistinct())
			assert.Equal(t, tt.want, b.Text())
		})
	}

	assert.False(t, New(dialect.MySQL).InsertDistinct())
}

func TestReplaceFirstAndWrap(t *testing.T) {
	b := New(dialect.Oracle)
	b.Append(selectUsers)

	assert.False(t, b.ReplaceFirst("MISSING", "X"))
	assert.True(t, b.ReplaceFirst("Name", "Email"))
	b.Wrap("SELECT * FROM (", ") T WHERE ROWNUM <= 3")

	assert.Equal(t, "SELECT * FROM (SELECT Id,Email FROM UserInfo) T WHERE ROWNUM <= 3", b.Text())
}

func TestHasWhereClause(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{sql: selectUsers, want: false},
		{sql: selectUsers + " WHERE Id = @p__1", want: true},
		{sql: selectUsers + " where Id = @p__1", want: true},
		{sql: selectUsers + " WHERE ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			b := New(dialect.SQLServer)
			b.Append(tt.sql)
			assert.Equal(t, tt.want, b.HasWhereClause())
		})
	}
}
