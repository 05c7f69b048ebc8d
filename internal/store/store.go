// Package store persists linked Strava accounts and their provider tokens.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tmcf/paceline/internal/db"
)

// LinkedAccount is one row per external athlete. The athlete ID is the sole
// external key; tokens are mutated in place on every refresh.
type LinkedAccount struct {
	AthleteID    int64     `json:"athlete_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    int64     `json:"expires_at"` // epoch seconds
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenTriple is the provider-issued credential set persisted per athlete.
type TokenTriple struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // epoch seconds
}

// AccountStore provides high-level operations for linked accounts
type AccountStore interface {
	// Upsert creates the row on first call for an athlete, otherwise replaces
	// the token fields and bumps updated_at. Idempotent; last writer wins.
	Upsert(ctx context.Context, athleteID int64, tokens TokenTriple) error
	// Get returns the linked account or ErrAccountNotFound.
	Get(ctx context.Context, athleteID int64) (*LinkedAccount, error)
	// Delete removes the row. Deleting an unknown athlete is a no-op.
	Delete(ctx context.Context, athleteID int64) error
}

// accountStore implements AccountStore on top of the database service
type accountStore struct {
	dbService *db.Service
}

// NewAccountStore creates a new account store instance
func NewAccountStore(dbService *db.Service) AccountStore {
	return &accountStore{dbService: dbService}
}

func (s *accountStore) Upsert(ctx context.Context, athleteID int64, tokens TokenTriple) error {
	d := s.dbService.Driver()
	query := fmt.Sprintf(`
		INSERT INTO linked_accounts (strava_athlete_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s)
		ON CONFLICT (strava_athlete_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		db.GetPlaceholder(d, 1), db.GetPlaceholder(d, 2), db.GetPlaceholder(d, 3),
		db.GetPlaceholder(d, 4), db.GetPlaceholder(d, 5), db.GetPlaceholder(d, 6))

	now := time.Now().UTC()
	_, err := s.dbService.DB().ExecContext(ctx, query,
		athleteID, tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert linked account: %w", err)
	}
	return nil
}

func (s *accountStore) Get(ctx context.Context, athleteID int64) (*LinkedAccount, error) {
	d := s.dbService.Driver()
	query := fmt.Sprintf(`
		SELECT strava_athlete_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM linked_accounts
		WHERE strava_athlete_id = %s`, db.GetPlaceholder(d, 1))

	var account LinkedAccount
	err := s.dbService.DB().QueryRowContext(ctx, query, athleteID).Scan(
		&account.AthleteID,
		&account.AccessToken,
		&account.RefreshToken,
		&account.ExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get linked account: %w", err)
	}

	return &account, nil
}

func (s *accountStore) Delete(ctx context.Context, athleteID int64) error {
	d := s.dbService.Driver()
	query := fmt.Sprintf(`DELETE FROM linked_accounts WHERE strava_athlete_id = %s`,
		db.GetPlaceholder(d, 1))

	if _, err := s.dbService.DB().ExecContext(ctx, query, athleteID); err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}
	return nil
}
