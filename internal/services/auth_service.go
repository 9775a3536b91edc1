package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"gridDashboard/internal/models"
)

// SessionName is the cookie that carries the signed session
const SessionName = "auth-session"

const (
	sessionDataKey = "session_data"
	oauthStateKey  = "state"
)

// AuthService reads and writes the signed session cookie. It is the
// "current user or nothing" collaborator of every protected route.
type AuthService struct {
	store  sessions.Store
	maxAge int
	secure bool
}

// NewAuthService creates a session service over store. maxAge is in seconds.
func NewAuthService(store sessions.Store, maxAge int, secure bool) *AuthService {
	return &AuthService{store: store, maxAge: maxAge, secure: secure}
}

// NewCookieStore builds the cookie store used in production
func NewCookieStore(secret []byte, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(maxAge)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		// Lax so the OAuth redirect back to us carries the cookie
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CurrentSession returns the validated session of r
func (s *AuthService) CurrentSession(r *http.Request) (*models.SessionData, error) {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		return nil, ErrInvalidSession
	}

	raw, ok := session.Values[sessionDataKey].(string)
	if !ok || raw == "" {
		return nil, ErrNoSession
	}

	var data models.SessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, ErrInvalidSession
	}
	if data.IsExpired(s.maxAge) {
		return nil, ErrExpiredSession
	}
	if err := s.ValidateSession(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// CurrentUser returns the signed-in user, or nil
func (s *AuthService) CurrentUser(r *http.Request) *models.User {
	data, err := s.CurrentSession(r)
	if err != nil {
		return nil
	}
	return data.User()
}

// ValidateSession validates a session
func (s *AuthService) ValidateSession(sessionData *models.SessionData) error {
	if sessionData == nil {
		return ErrInvalidSession
	}

	if !sessionData.IsValid() {
		return ErrExpiredSession
	}

	return nil
}

// BeginLogin clears the session and stores a fresh OAuth state value
func (s *AuthService) BeginLogin(w http.ResponseWriter, r *http.Request) (string, error) {
	state, err := GenerateSecureToken(16)
	if err != nil {
		return "", err
	}

	session := s.session(r)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Values[oauthStateKey] = state

	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return state, nil
}

// ConsumeState checks the state returned by the identity provider against
// the one stored by BeginLogin. The stored value is single-use.
func (s *AuthService) ConsumeState(r *http.Request, provided string) error {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		return ErrInvalidSession
	}

	state, ok := session.Values[oauthStateKey].(string)
	if !ok || state == "" || provided == "" || state != provided {
		return ErrStateMismatch
	}
	delete(session.Values, oauthStateKey)
	return nil
}

// StartSession signs user in and issues a new CSRF token
func (s *AuthService) StartSession(w http.ResponseWriter, r *http.Request, user models.User) (*models.SessionData, error) {
	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	data := &models.SessionData{
		UserEmail:     user.Email,
		UserName:      user.Name,
		CSRFToken:     csrfToken,
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Duration(s.maxAge) * time.Second),
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	session := s.session(r)
	delete(session.Values, oauthStateKey)
	session.Values[sessionDataKey] = string(raw)
	if err := session.Save(r, w); err != nil {
		return nil, err
	}
	return data, nil
}

// EndSession clears the session and expires the cookie
func (s *AuthService) EndSession(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// session returns the named session, starting over when the cookie cannot
// be decoded
func (s *AuthService) session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, SessionName)
	if err != nil {
		session, _ = s.store.New(r, SessionName)
	}
	if session.Options == nil {
		session.Options = &sessions.Options{Path: "/", MaxAge: s.maxAge, HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode}
	}
	return session
}

// GenerateSecureToken returns length random bytes, hex encoded
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func GenerateCSRFToken() (string, error) {
	return GenerateSecureToken(32)
}

// Error definitions
var (
	ErrNoSession      = NewError("no session")
	ErrInvalidSession = NewError("invalid session")
	ErrExpiredSession = NewError("session expired")
	ErrStateMismatch  = NewError("oauth state mismatch")
)

// Error represents a service error
type Error struct {
	message string
}

func NewError(message string) *Error {
	return &Error{message: message}
}

func (e *Error) Error() string {
	return e.message
}
