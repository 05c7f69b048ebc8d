// Package auth implements the OAuth link/unlink flow: redirect to Strava,
// handle the callback, and tear down on logout.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/httputil"
	"github.com/tmcf/paceline/internal/logger"
	"github.com/tmcf/paceline/internal/middleware"
	"github.com/tmcf/paceline/internal/session"
	"github.com/tmcf/paceline/internal/store"
	"github.com/tmcf/paceline/internal/strava"
	"github.com/tmcf/paceline/internal/svrlib"
	"github.com/tmcf/paceline/internal/tokens"
)

const stateCookieName = "oauth_state"

type AuthRouter struct {
	*svrlib.Router
	exchanger    strava.Exchanger
	accounts     store.AccountStore
	sessions     *session.Service
	orchestrator *tokens.Orchestrator
}

// RegisterRoutes registers all /auth/* routes plus /logout on the given mux.
func RegisterRoutes(mux *http.ServeMux, prefix string, cfg *config.Config,
	exchanger strava.Exchanger, accounts store.AccountStore,
	sessions *session.Service, orchestrator *tokens.Orchestrator) {
	router := &AuthRouter{
		Router:       svrlib.NewRouter(mux, prefix, cfg),
		exchanger:    exchanger,
		accounts:     accounts,
		sessions:     sessions,
		orchestrator: orchestrator,
	}
	mux.HandleFunc("GET "+prefix+"/strava", router.RedirectHandler)
	mux.HandleFunc("GET "+prefix+"/strava/callback", router.CallbackHandler)
	mux.Handle("POST /logout",
		middleware.ApplyFunc(router.LogoutHandler, middleware.SessionAuth(sessions)))
}

// RedirectHandler handles GET /auth/strava: sends the browser to Strava's
// authorization page with a one-time state token.
func (rt *AuthRouter) RedirectHandler(w http.ResponseWriter, r *http.Request) {
	state := generateStateToken()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/strava",
		HttpOnly: true,
		Secure:   rt.Config.AppEnv == config.EnvProd,
		MaxAge:   300,
	})

	logger.Info("Redirecting to Strava authorization page")
	http.Redirect(w, r, rt.exchanger.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler handles GET /auth/strava/callback: exchanges the code,
// persists the token triple, mints an app session, and hands it to the
// frontend as a one-time query parameter.
func (rt *AuthRouter) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Missing code")
		return
	}

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || state != stateCookie.Value {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid state")
		return
	}

	result, err := rt.exchanger.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		var upstreamErr *strava.UpstreamAuthError
		if errors.As(err, &upstreamErr) {
			// Codes are single-use; the only recovery is a new authorization
			httputil.WriteError(w, http.StatusUnauthorized,
				"Strava rejected the authorization, please reconnect", "error", err)
			return
		}
		httputil.WriteError(w, http.StatusBadGateway, "Authentication failed", "error", err)
		return
	}

	err = rt.accounts.Upsert(ctx, result.AthleteID, store.TokenTriple{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	})
	if err != nil {
		httputil.WriteInternalError(w, err, "Failed to persist linked account")
		return
	}

	appSession, err := rt.sessions.Issue(result.AthleteID)
	if err != nil {
		httputil.WriteInternalError(w, err, "Failed to issue session")
		return
	}

	logger.Info("Linked Strava account", "athleteID", result.AthleteID)

	// One-time hand-off; the frontend moves the session into its own storage
	// and strips the URL.
	http.Redirect(w, r, rt.Config.FrontendURL+"/?session="+appSession, http.StatusFound)
}

// LogoutHandler handles POST /logout: best-effort deauthorize upstream, then
// unconditionally delete local state. Always succeeds locally.
func (rt *AuthRouter) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	athleteID, ok := middleware.AthleteID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}

	accessToken := ""
	account, err := rt.accounts.Get(ctx, athleteID)
	if err == nil {
		accessToken = account.AccessToken
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		httputil.WriteInternalError(w, err, "Failed to load linked account")
		return
	}

	if err := rt.orchestrator.Revoke(ctx, athleteID, accessToken); err != nil {
		httputil.WriteInternalError(w, err, "Failed to unlink account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// generateStateToken returns a random URL-safe token for CSRF protection.
func generateStateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
