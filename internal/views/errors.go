package views

import (
	"errors"
	"fmt"

	"gridDashboard/internal/database"
)

// ErrorKind classifies a PersistenceError
type ErrorKind string

const (
	KindNotFound ErrorKind = "not_found"
	KindInvalid  ErrorKind = "invalid"
	KindRemote   ErrorKind = "remote"
	KindDatabase ErrorKind = "database"
)

// PersistenceError is returned by every view store operation that fails
type PersistenceError struct {
	Op      string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("views: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("views: %s: %s", e.Op, e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func newError(op string, kind ErrorKind, message string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Kind: kind, Message: message, Err: err}
}

// fromDatabase maps a database error onto a PersistenceError
func fromDatabase(op, message string, err error) *PersistenceError {
	if database.IsNotFound(err) {
		return newError(op, KindNotFound, "view not found", err)
	}
	return newError(op, KindDatabase, message, err)
}

// KindOf returns the kind of a PersistenceError, or "" for other errors
func KindOf(err error) ErrorKind {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsNotFound reports whether err means the view does not exist
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsInvalid reports whether err was caused by rejected input
func IsInvalid(err error) bool {
	return KindOf(err) == KindInvalid
}
