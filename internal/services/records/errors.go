package records

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies an expected failure of a store operation.
type Kind string

const (
	KindValidation         Kind = "ValidationError"
	KindDuplicateEmail     Kind = "DuplicateEmail"
	KindDuplicateTracking  Kind = "DuplicateTracking"
	KindNotFound           Kind = "NotFound"
	KindInvalidTransition  Kind = "InvalidTransition"
	KindPersistence        Kind = "PersistenceError"
	KindInvalidCredentials Kind = "InvalidCredentials"
)

// Error is returned for every expected failure. Callers switch on Kind.
type Error struct {
	Kind    Kind
	Message string
	// Fields lists missing or invalid input fields (ValidationError only).
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind of err, if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func validationError(fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: "missing or invalid fields", Fields: fields}
}

func notFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", what, id)}
}

func invalidTransition(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func persistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "changes applied in memory but not persisted", Err: err}
}
