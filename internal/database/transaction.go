package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// TransactionFunc represents a function that operates within a database transaction
type TransactionFunc func(tx *gorm.DB) error

// WithTransaction executes fn within a transaction. It commits when fn
// returns nil and rolls back on error or panic.
func WithTransaction(ctx context.Context, db *gorm.DB, fn TransactionFunc) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return WrapDatabaseError(ErrTypeConnection, "failed to begin transaction", tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return WrapDatabaseError(ErrTypeConnection, "failed to commit transaction", err)
	}

	return nil
}

// DatabaseError represents different types of database errors
type DatabaseError struct {
	Type    string
	Message string
	Err     error
}

func (e *DatabaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Common database error types
const (
	ErrTypeConnection = "CONNECTION_ERROR"
	ErrTypeNotFound   = "NOT_FOUND"
	ErrTypeConstraint = "CONSTRAINT_VIOLATION"
	ErrTypeQuery      = "QUERY_ERROR"
)

// WrapDatabaseError wraps a database error with additional context
func WrapDatabaseError(errType, message string, err error) *DatabaseError {
	return &DatabaseError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Classify wraps err with the error type matching its cause
func Classify(message string, err error) *DatabaseError {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return WrapDatabaseError(ErrTypeNotFound, message, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return WrapDatabaseError(ErrTypeConstraint, message, err)
	default:
		return WrapDatabaseError(ErrTypeQuery, message, err)
	}
}

// IsNotFound reports whether err is a not-found database error
func IsNotFound(err error) bool {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Type == ErrTypeNotFound
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}
