package main

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"gridDashboard/internal/models"
	"gridDashboard/internal/utils"
	ctxutil "gridDashboard/utils"
)

func (app *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if app.Auth.CurrentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	state, err := app.Auth.BeginLogin(w, r)
	if err != nil {
		app.Logger.WithError(err).Error("Failed to start login")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	url := app.OAuthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (app *App) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if err := app.Auth.ConsumeState(r, r.URL.Query().Get("state")); err != nil {
		app.Logger.WithError(err).Warn("OAuth callback with invalid state")
		http.Error(w, "Invalid state parameter - please try logging in again", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := app.OAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		app.Logger.WithError(err).Error("Failed to exchange token")
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	userInfo, err := app.fetchUser(r.Context(), token)
	if err != nil {
		app.Logger.WithError(err).Error("Failed to get user info")
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	user := models.User{Email: userInfo.Email, Name: userInfo.Name, Picture: userInfo.Picture}
	if _, err := app.Auth.StartSession(w, r, user); err != nil {
		app.Logger.WithError(err).Error("Failed to save session")
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	app.Logger.WithField("user", user.Email).Info("User signed in")
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (app *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if user := app.Auth.CurrentUser(r); user != nil {
		app.Logger.WithField("user", user.Email).Info("User logged out")
	}
	app.Auth.EndSession(w, r)
	http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
}

// SessionResponse is the body of GET /api/session
type SessionResponse struct {
	User      models.User `json:"user"`
	CSRFToken string      `json:"csrf_token"`
}

func (app *App) handleSession(w http.ResponseWriter, r *http.Request) {
	email, ok := utils.RequireAuthentication(w, r)
	if !ok {
		return
	}
	csrfToken, _ := ctxutil.GetCSRFToken(r)

	utils.RespondWithJSON(w, http.StatusOK, SessionResponse{
		User:      models.User{Email: email, Name: ctxutil.GetUserName(r)},
		CSRFToken: csrfToken,
	})
}

func (app *App) googleUserInfo(ctx context.Context, token *oauth2.Token) (*oauth2api.Userinfo, error) {
	client := app.OAuthConfig.Client(ctx, token)
	service, err := oauth2api.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}
	return service.Userinfo.Get().Context(ctx).Do()
}
