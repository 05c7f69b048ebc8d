package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/db"
)

func testStore(t *testing.T) AccountStore {
	t.Helper()

	cfg := &config.Config{
		DatabaseURL: ":memory:",
		AppEnv:      config.EnvTest,
	}
	dbService, err := db.NewService(cfg)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := dbService.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return NewAccountStore(dbService)
}

func TestUpsertThenGet(t *testing.T) {
	accounts := testStore(t)
	ctx := context.Background()

	tokens := TokenTriple{
		AccessToken:  "A1",
		RefreshToken: "R1",
		ExpiresAt:    time.Now().Add(6 * time.Hour).Unix(),
	}
	if err := accounts.Upsert(ctx, 42, tokens); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	account, err := accounts.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if account.AthleteID != 42 {
		t.Errorf("expected athlete 42, got %d", account.AthleteID)
	}
	if account.AccessToken != tokens.AccessToken ||
		account.RefreshToken != tokens.RefreshToken ||
		account.ExpiresAt != tokens.ExpiresAt {
		t.Errorf("stored tokens do not match: %+v", account)
	}
	if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
		t.Error("expected audit timestamps to be set")
	}
}

func TestUpsertIsIdempotentUpdate(t *testing.T) {
	accounts := testStore(t)
	ctx := context.Background()

	first := TokenTriple{AccessToken: "A1", RefreshToken: "R1", ExpiresAt: 100}
	if err := accounts.Upsert(ctx, 42, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	before, err := accounts.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// The provider may rotate the refresh token on each use; the new value
	// must replace the stored one.
	second := TokenTriple{AccessToken: "A2", RefreshToken: "R2", ExpiresAt: 200}
	if err := accounts.Upsert(ctx, 42, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	after, err := accounts.Get(ctx, 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if after.AccessToken != "A2" || after.RefreshToken != "R2" || after.ExpiresAt != 200 {
		t.Errorf("expected updated tokens, got %+v", after)
	}
	if after.UpdatedAt.Before(before.UpdatedAt) {
		t.Errorf("updated_at went backwards: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		// created_at is only written on first insert
		t.Errorf("created_at changed on update: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
}

func TestGetNotFound(t *testing.T) {
	accounts := testStore(t)

	_, err := accounts.Get(context.Background(), 999)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	accounts := testStore(t)
	ctx := context.Background()

	if err := accounts.Upsert(ctx, 42, TokenTriple{AccessToken: "A1", RefreshToken: "R1", ExpiresAt: 100}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := accounts.Delete(ctx, 42); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := accounts.Get(ctx, 42); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound after delete, got %v", err)
	}
}

func TestDeleteNonExistentIsNoOp(t *testing.T) {
	accounts := testStore(t)
	ctx := context.Background()

	if err := accounts.Upsert(ctx, 7, TokenTriple{AccessToken: "A", RefreshToken: "R", ExpiresAt: 100}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if err := accounts.Delete(ctx, 999); err != nil {
		t.Fatalf("deleting an unknown athlete should be a no-op, got %v", err)
	}

	// Other rows are left untouched
	if _, err := accounts.Get(ctx, 7); err != nil {
		t.Fatalf("unrelated row was affected: %v", err)
	}
}
