package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"

	"gridDashboard/internal/database"
	"gridDashboard/internal/logging"
	"gridDashboard/internal/models"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Session.Secret = strings.Repeat("s", 32)
	cfg.Google.ClientID = "client"
	cfg.Google.ClientSecret = "secret"
	return &cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "app.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := database.NewMigrator(db).Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app := newApp(db, testConfig(), logging.Discard())
	t.Cleanup(func() { app.Close() })
	return app
}

// signIn returns the session cookies and CSRF token of a signed-in user
func signIn(t *testing.T, app *App) ([]*http.Cookie, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	data, err := app.Auth.StartSession(rec, httptest.NewRequest(http.MethodGet, "/", nil), models.User{Email: "ana@example.com", Name: "Ana"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return rec.Result().Cookies(), data.CSRFToken
}

func serve(app *App, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Router().ServeHTTP(rec, req)
	return rec
}

func TestUnauthenticatedRequestsRedirectToLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/api/session", "/api/views?grid_key=invoices"} {
		rec := serve(app, httptest.NewRequest(http.MethodGet, path, nil), nil)
		if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/api/grid/invoices", strings.NewReader(`{}`)), nil)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("grid endpoint must require a session, got %d", rec.Code)
	}
}

func TestPublicPaths(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id")
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	if rec.Code != http.StatusTemporaryRedirect || !strings.HasPrefix(rec.Header().Get("Location"), app.OAuthConfig.Endpoint.AuthURL) {
		t.Fatalf("expected redirect to the identity provider, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestSignedInFlow(t *testing.T) {
	app := newTestApp(t)
	cookies, csrf := signIn(t, app)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/api/session", nil), cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("session: %d", rec.Code)
	}
	var session SessionResponse
	json.Unmarshal(rec.Body.Bytes(), &session)
	if session.User.Email != "ana@example.com" || session.CSRFToken != csrf {
		t.Fatalf("unexpected session %#v", session)
	}

	rec = serve(app, httptest.NewRequest(http.MethodPost, "/api/grid/invoices", strings.NewReader(`{"startRow":0,"endRow":50}`)), cookies)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"lastRow":0`) {
		t.Fatalf("grid: %d %s", rec.Code, rec.Body.String())
	}

	body := `{"name":"Q1","grid_key":"invoices","column_state":[{"colId":"invoice_id","hide":false}],"sort_model":[],"filter_model":null}`

	req := httptest.NewRequest(http.MethodPost, "/api/views", strings.NewReader(body))
	rec = serve(app, req, cookies)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create without csrf: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/views", strings.NewReader(body))
	req.Header.Set("X-CSRF-Token", csrf)
	rec = serve(app, req, cookies)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/", nil), cookies)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ana@example.com") {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthCallback(t *testing.T) {
	app := newTestApp(t)

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	app.OAuthConfig.Endpoint = oauth2.Endpoint{AuthURL: tokenServer.URL + "/auth", TokenURL: tokenServer.URL + "/token"}
	app.fetchUser = func(ctx context.Context, token *oauth2.Token) (*oauth2api.Userinfo, error) {
		if token.AccessToken != "token" {
			t.Errorf("unexpected token %q", token.AccessToken)
		}
		return &oauth2api.Userinfo{Email: "ana@example.com", Name: "Ana"}, nil
	}

	login := serve(app, httptest.NewRequest(http.MethodGet, "/login", nil), nil)
	location := login.Header().Get("Location")
	start := strings.Index(location, "state=")
	if start < 0 {
		t.Fatalf("no state in %q", location)
	}
	state := location[start+len("state="):]
	if end := strings.IndexByte(state, '&'); end >= 0 {
		state = state[:end]
	}

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/auth/callback?state=forged&code=abc", nil), login.Result().Cookies())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("forged state: expected 400, got %d", rec.Code)
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state+"&code=abc", nil), login.Result().Cookies())
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/" {
		t.Fatalf("callback: %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec = serve(app, req, rec.Result().Cookies())
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ana@example.com") {
		t.Fatalf("expected signed-in session, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	app := &App{Logger: logging.Discard()}
	handler := app.RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("burst should be allowed")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("expected the bucket to be empty")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other clients have their own bucket")
	}
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if ip := getRealIP(req); ip != "10.0.0.1" {
		t.Fatalf("unexpected %q", ip)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.2")
	if ip := getRealIP(req); ip != "203.0.113.5" {
		t.Fatalf("unexpected %q", ip)
	}

	req.Header.Set("X-Real-IP", "198.51.100.7")
	if ip := getRealIP(req); ip != "198.51.100.7" {
		t.Fatalf("unexpected %q", ip)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SESSION_SECRET", strings.Repeat("x", 40))
	t.Setenv("GRID_DEFAULT_PAGE_SIZE", "250")
	t.Setenv("LOG_LEVEL", "DEBUG")

	v := viper.New()
	if err := initConfig(v, ""); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Grid.DefaultPageSize != 250 || cfg.Log.Level != "DEBUG" || len(cfg.Session.Secret) != 40 {
		t.Fatalf("environment not applied: %#v", cfg)
	}
	if cfg.Port != "8080" || cfg.RateLimit.GridBurst != 240 || cfg.Log.Rotation.MaxSize != 128 {
		t.Fatalf("defaults not applied: %#v", cfg)
	}

	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected missing Google credentials to fail")
	}
}

func TestValidateServe(t *testing.T) {
	cfg := testConfig()
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Session.Secret = "short"
	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected short secret to fail")
	}
}

func TestConfigGenerateCommand(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCommand(VersionInfo{Version: "test", Commit: "abc"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "generate", "--output", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "gridboard.yaml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"default_page_size: 100", "shutdown_timeout: 10s", "max_backups: 5"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("generated config misses %q:\n%s", want, data)
		}
	}
}
