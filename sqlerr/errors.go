// Package sqlerr defines the error taxonomy shared by the SQL generation packages.
// Every error returned by the compiler or the fluent builder wraps one of the
// sentinels below, so callers can branch with errors.Is.
package sqlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. These are programmer errors: they are raised immediately and never retried.
var (
	// ErrInvalidUsage is returned when an API is called in a state or with arguments it does not accept
	// (WithKey on an INSERT, missing primary key metadata, nil key values, nil entity arguments).
	ErrInvalidUsage = errors.New("invalid usage")

	// ErrUnsupportedDialect is returned when an operation has no mapping for the requested dialect.
	ErrUnsupportedDialect = errors.New("unsupported dialect")

	// ErrUnsupportedExpression is returned when an expression node reaches the compiler in a position
	// it cannot translate.
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

// Error carries the failing operation and a lowercase, actionable message.
type Error struct {
	Kind    error  // one of the sentinels above
	Op      string // operation that failed, e.g. "builder.WithKey"
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error()+":")
	}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, " ")
}

// Unwrap exposes the sentinel so errors.Is works.
func (e *Error) Unwrap() error {
	return e.Kind
}

// InvalidUsage builds an ErrInvalidUsage error for op.
func InvalidUsage(op, format string, args ...any) error {
	return &Error{Kind: ErrInvalidUsage, Op: op, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedDialect builds an ErrUnsupportedDialect error for op.
func UnsupportedDialect(op string, dialect any) error {
	return &Error{Kind: ErrUnsupportedDialect, Op: op, Message: fmt.Sprintf("no mapping for dialect %v", dialect)}
}

// UnsupportedExpression builds an ErrUnsupportedExpression error describing the node shape.
func UnsupportedExpression(op, shape string) error {
	return &Error{Kind: ErrUnsupportedExpression, Op: op, Message: "cannot translate " + shape}
}
