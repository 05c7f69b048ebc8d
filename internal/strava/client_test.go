package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tmcf/paceline/internal/config"
)

func testClient(t *testing.T, tokenHandler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	if tokenHandler != nil {
		mux.HandleFunc("/oauth/token", tokenHandler)
	}
	mux.HandleFunc("/oauth/deauthorize", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		StravaClientID:     "12345",
		StravaClientSecret: "secret",
		PublicURL:          "http://localhost:3000",
	}
	client := NewClientWithEndpoints(cfg, Endpoints{
		AuthURL:        server.URL + "/oauth/authorize",
		TokenURL:       server.URL + "/oauth/token",
		DeauthorizeURL: server.URL + "/oauth/deauthorize",
		APIBaseURL:     server.URL + "/api/v3",
	})
	return client, server
}

func TestAuthCodeURL(t *testing.T) {
	client, _ := testClient(t, nil)

	authURL := client.AuthCodeURL("state-xyz")
	for _, want := range []string{
		"client_id=12345",
		"response_type=code",
		"state=state-xyz",
		"scope=read%2Cactivity%3Aread_all",
		"redirect_uri=http%3A%2F%2Flocalhost%3A3000%2Fauth%2Fstrava%2Fcallback",
	} {
		if !strings.Contains(authURL, want) {
			t.Errorf("auth URL missing %q: %s", want, authURL)
		}
	}
}

func TestExchangeAuthorizationCode(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %q", got)
		}
		if got := r.Form.Get("code"); got != "abc123" {
			t.Errorf("expected code abc123, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"access_token": "A1",
			"refresh_token": "R1",
			"token_type": "Bearer",
			"expires_in": 21600,
			"expires_at": 1700021600,
			"athlete": {"id": 42, "firstname": "Ada"}
		}`)
	})

	result, err := client.ExchangeAuthorizationCode(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if result.AccessToken != "A1" || result.RefreshToken != "R1" {
		t.Errorf("unexpected tokens: %+v", result)
	}
	if result.ExpiresAt != 1700021600 {
		t.Errorf("expected expires_at from response, got %d", result.ExpiresAt)
	}
	if result.AthleteID != 42 {
		t.Errorf("expected athlete 42, got %d", result.AthleteID)
	}
}

func TestExchangeAuthorizationCode_Rejected(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message": "Bad Request", "errors": [{"resource": "AuthorizationCode", "code": "invalid"}]}`)
	})

	_, err := client.ExchangeAuthorizationCode(context.Background(), "expired-code")
	var upstreamErr *UpstreamAuthError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamAuthError, got %v", err)
	}
	if upstreamErr.Op != "exchange_code" {
		t.Errorf("expected exchange_code op, got %q", upstreamErr.Op)
	}
	if upstreamErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", upstreamErr.StatusCode)
	}
}

func TestExchangeRefreshToken(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", got)
		}
		if got := r.Form.Get("refresh_token"); got != "R1" {
			t.Errorf("expected refresh token R1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"access_token": "A2",
			"refresh_token": "R2",
			"token_type": "Bearer",
			"expires_in": 21600,
			"expires_at": 1700043200
		}`)
	})

	result, err := client.ExchangeRefreshToken(context.Background(), "R1")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.AccessToken != "A2" {
		t.Errorf("expected new access token, got %q", result.AccessToken)
	}
	// Rotated refresh token must replace the stored one
	if result.RefreshToken != "R2" {
		t.Errorf("expected rotated refresh token, got %q", result.RefreshToken)
	}
	if result.ExpiresAt != 1700043200 {
		t.Errorf("expected expires_at from response, got %d", result.ExpiresAt)
	}
}

func TestExchangeRefreshToken_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"access_token": "A2",
			"token_type": "Bearer",
			"expires_in": 21600
		}`)
	})

	result, err := client.ExchangeRefreshToken(context.Background(), "R1")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if result.RefreshToken != "R1" {
		t.Errorf("expected original refresh token to be kept, got %q", result.RefreshToken)
	}
}

func TestExchangeRefreshToken_Rejected(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Unauthorized"}`)
	})

	_, err := client.ExchangeRefreshToken(context.Background(), "revoked")
	var upstreamErr *UpstreamAuthError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamAuthError, got %v", err)
	}
	if upstreamErr.Op != "exchange_refresh" {
		t.Errorf("expected exchange_refresh op, got %q", upstreamErr.Op)
	}
}

func TestDeauthorize(t *testing.T) {
	client, _ := testClient(t, nil)

	if err := client.Deauthorize(context.Background(), "A1"); err != nil {
		t.Fatalf("deauthorize failed: %v", err)
	}
}
