// Package testutil provides shared test helpers
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/db"
	"github.com/tmcf/paceline/internal/store"
)

// TestDatabase creates an in-memory SQLite database for testing
func TestDatabase(t *testing.T) *db.Service {
	t.Helper()

	cfg := &config.Config{
		DatabaseURL: ":memory:",
		AppEnv:      config.EnvTest,
	}

	dbService, err := db.NewService(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := dbService.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return dbService
}

// TestServer creates a test HTTP server - mux should be set up by the test
func TestServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
	})

	return server
}

// LinkTestAccount persists a linked account for the given athlete and returns it
func LinkTestAccount(t *testing.T, accounts store.AccountStore, athleteID int64, expiresAt int64) *store.LinkedAccount {
	t.Helper()

	ctx := context.Background()
	err := accounts.Upsert(ctx, athleteID, store.TokenTriple{
		AccessToken:  "test-access",
		RefreshToken: "test-refresh",
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("Failed to link test account: %v", err)
	}

	account, err := accounts.Get(ctx, athleteID)
	if err != nil {
		t.Fatalf("Failed to load test account: %v", err)
	}
	return account
}

// FutureEpoch returns an epoch-seconds instant d from now
func FutureEpoch(d time.Duration) int64 {
	return time.Now().Add(d).Unix()
}
