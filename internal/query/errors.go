package query

import (
	"fmt"
	"net/http"
)

// NotFoundError is returned for a table outside the allow-list
type NotFoundError struct {
	Table string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Table)
}

func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// UnsupportedRequestError is returned for requests the endpoint refuses to
// serve, such as row grouping
type UnsupportedRequestError struct {
	Message string
}

func (e *UnsupportedRequestError) Error() string {
	return e.Message
}

func (e *UnsupportedRequestError) StatusCode() int {
	return http.StatusBadRequest
}

// BackingStoreError wraps a failed query. Its message is the store's own.
type BackingStoreError struct {
	Err error
}

func (e *BackingStoreError) Error() string {
	return e.Err.Error()
}

func (e *BackingStoreError) Unwrap() error {
	return e.Err
}

func (e *BackingStoreError) StatusCode() int {
	return http.StatusInternalServerError
}

// StatusCoder is implemented by every error of this package
type StatusCoder interface {
	StatusCode() int
}
