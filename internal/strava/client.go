// Package strava talks to Strava's OAuth endpoints. It is stateless: every
// method is a single request/response against the provider and nothing here
// touches the credential store.
package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tmcf/paceline/internal/config"
	"golang.org/x/oauth2"
)

// Scope requested during authorization. Strava expects a single
// comma-separated scope parameter.
const Scope = "read,activity:read_all"

// Endpoints holds the provider URLs. Overridable so tests can point the
// client at a local server.
type Endpoints struct {
	AuthURL        string
	TokenURL       string
	DeauthorizeURL string
	APIBaseURL     string
}

// DefaultEndpoints are the production Strava endpoints.
var DefaultEndpoints = Endpoints{
	AuthURL:        "https://www.strava.com/oauth/authorize",
	TokenURL:       "https://www.strava.com/oauth/token",
	DeauthorizeURL: "https://www.strava.com/oauth/deauthorize",
	APIBaseURL:     "https://www.strava.com/api/v3",
}

// TokenResult represents the result of a successful token exchange. AthleteID
// is only populated by the authorization-code grant; Strava does not return
// the athlete on refresh.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // epoch seconds
	AthleteID    int64
}

// Exchanger defines the two OAuth token operations plus best-effort
// deauthorization.
type Exchanger interface {
	// AuthCodeURL builds the authorization redirect URL.
	AuthCodeURL(state string) string

	// ExchangeAuthorizationCode trades a one-shot authorization code for a
	// token triple and the athlete identity. Provider rejections surface as
	// *UpstreamAuthError and must not be retried (codes are single-use).
	ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenResult, error)

	// ExchangeRefreshToken trades a refresh token for a new triple. Strava may
	// rotate the refresh token; callers must persist the returned value. A
	// rejection (*UpstreamAuthError) is terminal for the linked account.
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error)

	// Deauthorize asks Strava to invalidate the access token.
	Deauthorize(ctx context.Context, accessToken string) error

	// APIBaseURL returns the base URL for resource endpoints.
	APIBaseURL() string
}

// Client implements Exchanger against Strava's OAuth endpoints.
type Client struct {
	conf      *oauth2.Config
	endpoints Endpoints
}

// NewClient creates a client using the production Strava endpoints. The
// callback URL is derived from the deployment's public URL.
func NewClient(cfg *config.Config) *Client {
	return NewClientWithEndpoints(cfg, DefaultEndpoints)
}

// NewClientWithEndpoints creates a client against custom endpoints (tests).
func NewClientWithEndpoints(cfg *config.Config, endpoints Endpoints) *Client {
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.StravaClientID,
			ClientSecret: cfg.StravaClientSecret,
			RedirectURL:  cfg.PublicURL + "/auth/strava/callback",
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  endpoints.AuthURL,
				TokenURL: endpoints.TokenURL,
			},
		},
		endpoints: endpoints,
	}
}

// AuthCodeURL builds the authorization redirect URL.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// ExchangeAuthorizationCode trades an authorization code for tokens.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenResult, error) {
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, asUpstreamAuthError("exchange_code", err)
	}

	result := tokenResult(token)

	// The code grant includes the athlete object; it is the sole external key
	// for the linked account, so a response without it is unusable.
	athlete, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("token response missing athlete object")
	}
	id, ok := athlete["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("token response missing athlete id")
	}
	result.AthleteID = int64(id)

	return result, nil
}

// ExchangeRefreshToken trades a refresh token for a new token triple.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	src := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, asUpstreamAuthError("exchange_refresh", err)
	}

	result := tokenResult(token)
	if result.RefreshToken == "" {
		// Provider did not rotate the refresh token; keep using the old one.
		result.RefreshToken = refreshToken
	}
	return result, nil
}

// Deauthorize asks Strava to invalidate the access token. Callers treat this
// as best-effort: local cleanup proceeds regardless of the outcome.
func (c *Client) Deauthorize(ctx context.Context, accessToken string) error {
	deauthURL := c.endpoints.DeauthorizeURL + "?" + url.Values{"access_token": {accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deauthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build deauthorize request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("deauthorize request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deauthorize returned status %d", resp.StatusCode)
	}
	return nil
}

// APIBaseURL returns the base URL for resource endpoints.
func (c *Client) APIBaseURL() string {
	return c.endpoints.APIBaseURL
}

// tokenResult maps an oauth2 token onto our triple. Strava reports expiry as
// an absolute expires_at in the raw response; fall back to the library's
// computed Expiry when absent.
func tokenResult(token *oauth2.Token) *TokenResult {
	result := &TokenResult{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if expiresAt, ok := token.Extra("expires_at").(float64); ok {
		result.ExpiresAt = int64(expiresAt)
	} else if !token.Expiry.IsZero() {
		result.ExpiresAt = token.Expiry.Unix()
	}
	return result
}

// asUpstreamAuthError maps provider rejections onto *UpstreamAuthError while
// leaving transport-level failures (DNS, timeouts) as plain errors.
func asUpstreamAuthError(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &UpstreamAuthError{
			Op:         op,
			StatusCode: retrieveErr.Response.StatusCode,
			Err:        err,
		}
	}
	return fmt.Errorf("strava %s failed: %w", op, err)
}
