package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"gorm.io/gorm"

	"gridDashboard/internal/database"
	"gridDashboard/internal/handlers"
	"gridDashboard/internal/logging"
	"gridDashboard/internal/query"
	"gridDashboard/internal/services"
	"gridDashboard/internal/views"
)

type App struct {
	DB          *gorm.DB
	Auth        *services.AuthService
	OAuthConfig *oauth2.Config
	Config      *Config
	Logger      *logging.Logger

	Views       *views.CachedStore
	GridLimiter *RateLimiter

	// fetchUser resolves the signed-in Google account after the code
	// exchange
	fetchUser func(ctx context.Context, token *oauth2.Token) (*oauth2api.Userinfo, error)
}

// NewApp opens the database, applies pending migrations and wires the
// handlers
func NewApp(ctx context.Context, cfg *Config, logger *logging.Logger) (*App, error) {
	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, Logger: logger})
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db).Migrate(ctx)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if len(applied) > 0 {
		logger.WithField("versions", applied).Info("Applied database migrations")
	}

	app := newApp(db, cfg, logger)
	logger.WithFields(map[string]interface{}{
		"max_age": cfg.Session.MaxAge,
		"secure":  cfg.IsProduction(),
	}).Info("Session store configured")
	return app, nil
}

// newApp wires an App around an open database
func newApp(db *gorm.DB, cfg *Config, logger *logging.Logger) *App {
	ttl, _ := cfg.ViewCacheDuration()
	store := services.NewCookieStore([]byte(cfg.Session.Secret), cfg.Session.MaxAge, cfg.IsProduction())

	app := &App{
		DB:     db,
		Auth:   services.NewAuthService(store, cfg.Session.MaxAge, cfg.IsProduction()),
		Config: cfg,
		Logger: logger,
		OAuthConfig: &oauth2.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			Scopes: []string{
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
		Views:       views.NewCachedStore(views.NewSQLStore(db, logger), ttl, logger),
		GridLimiter: NewRateLimiter(cfg.RateLimit.GridPerMinute, cfg.RateLimit.GridBurst),
	}
	app.fetchUser = app.googleUserInfo
	return app
}

// Router builds the HTTP routes
func (app *App) Router() *mux.Router {
	grid := handlers.NewGridHandlers(query.NewExecutor(app.DB, app.Logger), app.Config.Grid.DefaultPageSize, app.Logger)
	viewHandlers := handlers.NewViewHandlers(app.Views, app.Logger)

	r := mux.NewRouter()

	r.Use(app.RequestIDMiddleware)
	r.Use(app.RecoveryMiddleware)
	r.Use(app.LoggingMiddleware)
	r.Use(app.SessionMiddleware)

	r.HandleFunc("/healthz", app.handleHealth).Methods("GET")
	r.HandleFunc("/login", app.handleLogin).Methods("GET")
	r.HandleFunc("/logout", app.handleLogout).Methods("GET", "POST")
	r.HandleFunc("/auth/callback", app.handleAuthCallback).Methods("GET")

	r.HandleFunc("/", app.handleDashboard).Methods("GET")
	r.HandleFunc("/api/session", app.handleSession).Methods("GET")

	api := r.PathPrefix("/api/grid").Subrouter()
	api.Use(app.RateLimitMiddleware(app.GridLimiter))
	api.HandleFunc("/{table}", grid.HandleRows).Methods("POST")
	api.HandleFunc("/{table}/columns", grid.HandleColumns).Methods("GET")

	r.HandleFunc("/api/views", viewHandlers.HandleList).Methods("GET")
	r.HandleFunc("/api/views", viewHandlers.HandleCreate).Methods("POST")
	r.HandleFunc("/api/views/{id}", viewHandlers.HandleUpdate).Methods("PATCH")
	r.HandleFunc("/api/views/{id}", viewHandlers.HandleDelete).Methods("DELETE")

	return r
}

// Serve runs the HTTP server until ctx is done, then drains it
func (app *App) Serve(ctx context.Context) error {
	shutdownTimeout, err := app.Config.ShutdownDuration()
	if err != nil {
		return err
	}

	stopCleanup := app.GridLimiter.StartCleanupRoutine()
	defer stopCleanup()

	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.WithFields(map[string]interface{}{
			"port":        app.Config.Port,
			"environment": app.Config.Environment,
		}).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Close releases the database and caches
func (app *App) Close() error {
	app.Views.Close()
	return database.Close(app.DB)
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := database.Health(ctx, app.DB); err != nil {
		app.Logger.WithError(err).Warn("Health check failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
