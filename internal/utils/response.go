package utils

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	ctxutil "gridDashboard/utils"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithError sends {"error": message} with the given status
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

// Common error response functions
func AuthenticationError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusUnauthorized, "Authentication required")
}

func BadRequestError(w http.ResponseWriter, message string) {
	RespondWithError(w, http.StatusBadRequest, message)
}

func NotFoundError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusNotFound, "Not found")
}

func InternalServerError(w http.ResponseWriter, message string) {
	RespondWithError(w, http.StatusInternalServerError, message)
}

func ValidationError(w http.ResponseWriter, message string) {
	RespondWithError(w, http.StatusBadRequest, message)
}

func RateLimitError(w http.ResponseWriter) {
	RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
}

// RequireAuthentication checks authentication and responds with error if not authenticated
func RequireAuthentication(w http.ResponseWriter, r *http.Request) (string, bool) {
	userEmail, ok := ctxutil.GetUserEmail(r)
	if !ok || !ctxutil.IsAuthenticated(r) {
		AuthenticationError(w)
		return "", false
	}
	return userEmail, true
}

// RequireCSRFToken compares the X-CSRF-Token header with the session token
func RequireCSRFToken(w http.ResponseWriter, r *http.Request) bool {
	expected, ok := ctxutil.GetCSRFToken(r)
	if !ok || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-CSRF-Token")), []byte(expected)) != 1 {
		RespondWithError(w, http.StatusForbidden, "Invalid CSRF token")
		return false
	}
	return true
}
