package database

import (
	"strings"
	"time"

	"github.com/gaborage/sqlexpr/dialect"
	"github.com/gaborage/sqlexpr/statement"
	go_ora "github.com/sijms/go-ora/v2"
)

// oracleValue wraps a value in the go-ora type matching the column's declared type.
// Values of other types, or without a declared type, pass through unchanged.
func oracleValue(p statement.Parameter) any {
	v := driverValue(dialect.Oracle, p.Value)
	if p.DataType == nil || v == nil {
		return v
	}

	switch oracleTypeName(p.DataType.Name) {
	case "NVARCHAR", "NVARCHAR2", "NCHAR":
		if s, ok := v.(string); ok {
			return go_ora.NVarChar(s)
		}
	case "CLOB":
		if s, ok := v.(string); ok {
			return go_ora.Clob{String: s, Valid: true}
		}
	case "NCLOB":
		if s, ok := v.(string); ok {
			return go_ora.NClob{String: s, Valid: true}
		}
	case "TIMESTAMP":
		if t, ok := v.(time.Time); ok {
			return go_ora.TimeStamp(t)
		}
	case "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ":
		if t, ok := v.(time.Time); ok {
			return go_ora.TimeStampTZ(t)
		}
	}
	return v
}

// oracleTypeName upper-cases a declared type and collapses inner whitespace.
func oracleTypeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}
