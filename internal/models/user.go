package models

import "time"

// User is the signed-in account as reported by the identity provider
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// SessionData represents session information
type SessionData struct {
	UserEmail     string    `json:"user_email"`
	UserName      string    `json:"user_name,omitempty"`
	CSRFToken     string    `json:"csrf_token"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired checks if the session has expired
func (s *SessionData) IsExpired(maxAge int) bool {
	return time.Since(s.CreatedAt) > time.Duration(maxAge)*time.Second
}

// IsValid checks if the session is valid
func (s *SessionData) IsValid() bool {
	return s.Authenticated && s.UserEmail != "" && !s.ExpiresAt.Before(time.Now())
}

// User returns the session owner
func (s *SessionData) User() *User {
	return &User{Email: s.UserEmail, Name: s.UserName}
}
