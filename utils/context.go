package utils

import (
	"context"
	"net/http"
)

// Context keys set by the session middleware
type contextKey string

const (
	UserEmailKey     contextKey = "user_email"
	UserNameKey      contextKey = "user_name"
	CSRFTokenKey     contextKey = "csrf_token"
	AuthenticatedKey contextKey = "authenticated"
	RequestIDKey     contextKey = "request_id"
)

// WithSession stores the authenticated user on the request context
func WithSession(ctx context.Context, email, name, csrfToken string) context.Context {
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserNameKey, name)
	ctx = context.WithValue(ctx, CSRFTokenKey, csrfToken)
	return context.WithValue(ctx, AuthenticatedKey, true)
}

// WithRequestID tags the context with a request id for log correlation
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetUserEmail extracts user email from request context
func GetUserEmail(r *http.Request) (string, bool) {
	userEmail, ok := r.Context().Value(UserEmailKey).(string)
	return userEmail, ok && userEmail != ""
}

// GetUserName extracts the display name from request context
func GetUserName(r *http.Request) string {
	name, _ := r.Context().Value(UserNameKey).(string)
	return name
}

// GetCSRFToken extracts CSRF token from request context
func GetCSRFToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(CSRFTokenKey).(string)
	return token, ok && token != ""
}

// GetRequestID returns the request id, or "" outside a request
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDKey).(string)
	return id
}

// IsAuthenticated checks if user is authenticated
func IsAuthenticated(r *http.Request) bool {
	authenticated, ok := r.Context().Value(AuthenticatedKey).(bool)
	return ok && authenticated
}
