package strava

import "fmt"

// UpstreamAuthError indicates Strava rejected a credential we presented: an
// expired or already-used authorization code, or a revoked/rotated-out refresh
// token. These failures are terminal for the operation and are never retried;
// the athlete has to reconnect their account.
type UpstreamAuthError struct {
	Op         string // "exchange_code" or "exchange_refresh"
	StatusCode int
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("strava rejected %s (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *UpstreamAuthError) Unwrap() error {
	return e.Err
}
