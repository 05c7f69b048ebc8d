// Package tokens coordinates the provider token lifecycle: it resolves a
// guaranteed-fresh access token for an athlete, refreshing and persisting
// through the store as needed, and tears everything down on logout.
package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/tmcf/paceline/internal/logger"
	"github.com/tmcf/paceline/internal/store"
	"github.com/tmcf/paceline/internal/strava"
)

// Orchestrator resolves fresh provider tokens and handles revocation.
//
// Concurrent resolves for the same athlete are tolerated, not serialized:
// both may refresh, the upsert is last-writer-wins, and refreshes are
// monotonic in expiry.
type Orchestrator struct {
	accounts  store.AccountStore
	exchanger strava.Exchanger
	leeway    time.Duration
	now       func() time.Time
}

// NewOrchestrator creates an orchestrator with the given refresh leeway: the
// safety margin subtracted from a token's expiry before treating it as due
// for refresh.
func NewOrchestrator(accounts store.AccountStore, exchanger strava.Exchanger, leeway time.Duration) *Orchestrator {
	return &Orchestrator{
		accounts:  accounts,
		exchanger: exchanger,
		leeway:    leeway,
		now:       time.Now,
	}
}

// ResolveFreshAccessToken returns an access token for the athlete that is
// valid for at least the configured leeway. The stored token is returned
// unchanged when it still clears the leeway window; otherwise one refresh is
// performed and the new triple persisted before returning.
//
// Errors: store.ErrAccountNotFound when no account backs the athlete (e.g.
// deleted between session issuance and use), *strava.UpstreamAuthError when
// the provider rejects the refresh token. Neither leaves a partial write: the
// store is only touched after a successful refresh.
func (o *Orchestrator) ResolveFreshAccessToken(ctx context.Context, athleteID int64) (string, error) {
	account, err := o.accounts.Get(ctx, athleteID)
	if err != nil {
		return "", err
	}

	if account.ExpiresAt > o.now().Add(o.leeway).Unix() {
		return account.AccessToken, nil
	}

	logger.Debug("Access token due for refresh", "athleteID", athleteID, "expiresAt", account.ExpiresAt)

	result, err := o.exchanger.ExchangeRefreshToken(ctx, account.RefreshToken)
	if err != nil {
		return "", err
	}

	err = o.accounts.Upsert(ctx, athleteID, store.TokenTriple{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	logger.Info("Refreshed provider tokens", "athleteID", athleteID, "expiresAt", result.ExpiresAt)

	return result.AccessToken, nil
}

// Revoke notifies the provider to invalidate the access token, then deletes
// the linked account. The deauthorize call is best-effort: local cleanup must
// not depend on upstream availability, so the delete happens regardless.
func (o *Orchestrator) Revoke(ctx context.Context, athleteID int64, accessToken string) error {
	if accessToken != "" {
		if err := o.exchanger.Deauthorize(ctx, accessToken); err != nil {
			logger.Warn("Provider deauthorize failed, deleting local state anyway",
				"athleteID", athleteID, "error", err)
		}
	}

	if err := o.accounts.Delete(ctx, athleteID); err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}

	logger.Info("Unlinked account", "athleteID", athleteID)
	return nil
}
