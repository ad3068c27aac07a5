// Package sqllex holds lexical helpers shared by the statement buffer:
// reserved-word tables per dialect and the token stream used by parameter re-typing.
package sqllex

import (
	"strings"

	"github.com/gaborage/sqlexpr/dialect"
)

// commonReservedWords are reserved in every supported dialect.
var commonReservedWords = map[string]struct{}{
	"ADD": {}, "ALL": {}, "ALTER": {}, "AND": {}, "ANY": {}, "AS": {}, "ASC": {}, "BETWEEN": {},
	"BY": {}, "CASE": {}, "CHECK": {}, "COLUMN": {}, "CREATE": {}, "CURRENT": {}, "DELETE": {},
	"DESC": {}, "DISTINCT": {}, "DROP": {}, "ELSE": {}, "EXISTS": {}, "FOR": {}, "FROM": {},
	"GRANT": {}, "GROUP": {}, "HAVING": {}, "IN": {}, "INSERT": {}, "INTO": {}, "IS": {}, "LIKE": {},
	"NOT": {}, "NULL": {}, "ON": {}, "OR": {}, "ORDER": {}, "SELECT": {}, "SET": {}, "TABLE": {},
	"THEN": {}, "TO": {}, "UNION": {}, "UNIQUE": {}, "UPDATE": {}, "VALUES": {}, "WHEN": {},
	"WHERE": {}, "WITH": {},
}

// dialectReservedWords extends commonReservedWords with words that only clash in one dialect.
// The Oracle list follows the Oracle Database SQL Language Reference.
var dialectReservedWords = map[dialect.Dialect]map[string]struct{}{
	dialect.Oracle: {
		"ACCESS": {}, "BEGIN": {}, "COMMENT": {}, "CONNECT": {}, "EXCLUDE": {}, "INDEX": {},
		"INTERSECT": {}, "LEVEL": {}, "LOCK": {}, "MINUS": {}, "MODE": {}, "NOCOMPRESS": {},
		"NUMBER": {}, "OF": {}, "OPTION": {}, "ROW": {}, "ROWNUM": {}, "SHARE": {}, "SIZE": {},
		"START": {}, "TRIGGER": {}, "VIEW": {}, "DATE": {}, "USER": {},
	},
	dialect.SQLServer: {
		"KEY": {}, "USER": {}, "INDEX": {}, "PERCENT": {}, "TOP": {}, "FILE": {}, "PLAN": {},
		"OPTION": {}, "OPEN": {}, "RULE": {}, "VIEW": {}, "TRIGGER": {}, "IDENTITY": {},
	},
	dialect.MySQL: {
		"KEY": {}, "KEYS": {}, "INDEX": {}, "RANK": {}, "LIMIT": {}, "READ": {}, "CONDITION": {},
		"RANGE": {}, "ROWS": {}, "INTERVAL": {}, "OPTION": {}, "SEPARATOR": {},
	},
	dialect.PostgreSQL: {
		"USER": {}, "LIMIT": {}, "OFFSET": {}, "ANALYSE": {}, "ANALYZE": {}, "ARRAY": {},
		"ONLY": {}, "PLACING": {}, "RETURNING": {}, "WINDOW": {},
	},
	dialect.SQLite: {
		"INDEX": {}, "LIMIT": {}, "OFFSET": {}, "KEY": {}, "ROWID": {}, "TRIGGER": {}, "VIEW": {},
	},
}

// IsReservedWord checks if word is reserved in d. The check is case-insensitive.
//
// Examples:
//
//	IsReservedWord(dialect.Oracle, "level")     // true
//	IsReservedWord(dialect.SQLServer, "Key")    // true
//	IsReservedWord(dialect.MySQL, "user_id")    // false
func IsReservedWord(d dialect.Dialect, word string) bool {
	if word == "" {
		return false
	}
	upper := strings.ToUpper(word)
	if _, ok := commonReservedWords[upper]; ok {
		return true
	}
	_, ok := dialectReservedWords[d][upper]
	return ok
}
