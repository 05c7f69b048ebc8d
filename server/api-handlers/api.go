// Package api proxies Strava resource endpoints for the dashboard. Handlers
// are stateless pass-throughs: resolve a fresh provider token, forward the
// request upstream, and relay the JSON body.
package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"

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

// streamKeys is the telemetry requested for activity detail charts and maps.
const streamKeys = "time,distance,latlng,altitude,heartrate,velocity_smooth"

type APIRouter struct {
	*svrlib.Router
	orchestrator *tokens.Orchestrator
	exchanger    strava.Exchanger
	client       *http.Client
}

// RegisterRoutes registers the protected /api/* routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, prefix string, cfg *config.Config,
	orchestrator *tokens.Orchestrator, exchanger strava.Exchanger, sessions *session.Service) {
	router := &APIRouter{
		Router:       svrlib.NewRouter(mux, prefix, cfg),
		orchestrator: orchestrator,
		exchanger:    exchanger,
		client:       http.DefaultClient,
	}

	protected := middleware.ProtectedAPIGroup(mux, sessions)
	protected.HandleFunc("GET "+prefix+"/athlete", router.AthleteHandler)
	protected.HandleFunc("GET "+prefix+"/activities", router.ActivitiesHandler)
	protected.HandleFunc("GET "+prefix+"/activities/{id}", router.ActivityHandler)
	protected.HandleFunc("GET "+prefix+"/activities/{id}/streams", router.ActivityStreamsHandler)
}

// AthleteHandler proxies the athlete profile.
func (rt *APIRouter) AthleteHandler(w http.ResponseWriter, r *http.Request) {
	rt.proxy(w, r, "/athlete", nil)
}

// ActivitiesHandler proxies the activity list with pagination passthrough.
func (rt *APIRouter) ActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	query := url.Values{}
	for _, key := range []string{"page", "per_page", "before", "after"} {
		if v := r.URL.Query().Get(key); v != "" {
			query.Set(key, v)
		}
	}
	rt.proxy(w, r, "/athlete/activities", query)
}

// ActivityHandler proxies a single activity's detail.
func (rt *APIRouter) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	rt.proxy(w, r, "/activities/"+url.PathEscape(r.PathValue("id")), nil)
}

// ActivityStreamsHandler proxies the telemetry streams for an activity.
func (rt *APIRouter) ActivityStreamsHandler(w http.ResponseWriter, r *http.Request) {
	query := url.Values{}
	query.Set("keys", streamKeys)
	query.Set("key_by_type", "true")
	rt.proxy(w, r, "/activities/"+url.PathEscape(r.PathValue("id"))+"/streams", query)
}

// proxy resolves a fresh access token for the session's athlete and forwards
// a GET to the provider, relaying status and body verbatim.
func (rt *APIRouter) proxy(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	ctx := r.Context()

	athleteID, ok := middleware.AthleteID(r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "No session")
		return
	}

	accessToken, err := rt.orchestrator.ResolveFreshAccessToken(ctx, athleteID)
	if err != nil {
		writeResolveError(w, athleteID, err)
		return
	}

	upstreamURL := rt.exchanger.APIBaseURL() + path
	if len(query) > 0 {
		upstreamURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, upstreamURL, nil)
	if err != nil {
		httputil.WriteInternalError(w, err, "Failed to build upstream request")
		return
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := rt.client.Do(req)
	if err != nil {
		httputil.WriteError(w, http.StatusBadGateway, "Upstream request failed", "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Error("Failed to relay upstream response", "error", err)
	}
}

// writeResolveError maps orchestrator failures onto user-visible responses:
// a missing account or a rejected refresh token both mean the athlete has to
// reconnect; anything else is a server error.
func writeResolveError(w http.ResponseWriter, athleteID int64, err error) {
	if errors.Is(err, store.ErrAccountNotFound) {
		httputil.WriteError(w, http.StatusNotFound,
			"Account no longer linked, please reconnect", "athleteID", athleteID)
		return
	}
	var upstreamErr *strava.UpstreamAuthError
	if errors.As(err, &upstreamErr) {
		httputil.WriteError(w, http.StatusUnauthorized,
			"Strava authorization expired, please reconnect", "athleteID", athleteID, "error", err)
		return
	}
	httputil.WriteInternalError(w, err, "Failed to resolve access token", "athleteID", athleteID)
}
