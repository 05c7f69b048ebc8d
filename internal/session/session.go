// Package session mints and validates the application's own signed session
// credential. Sessions are stateless HS256 JWTs independent of the provider
// tokens: they never carry a Strava token, only the athlete identity, so a
// provider-side token rotation never invalidates an issued session.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/tmcf/paceline/internal/config"
)

// ErrInvalidSession is returned when a session token fails verification for
// any reason: bad signature, malformed structure, or expiry. Verification is
// all-or-nothing.
var ErrInvalidSession = errors.New("invalid or expired session")

const issuer = "paceline"

// Service issues and verifies app session tokens under a process-wide secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a session service. The signing secret is required; a
// missing secret is a startup configuration error, never a per-request one.
func NewService(cfg *config.Config) (*Service, error) {
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("session secret is not configured")
	}
	return &Service{
		secret: []byte(cfg.SessionSecret),
		ttl:    cfg.SessionTTL,
	}, nil
}

// Issue mints a signed session token for the athlete, valid for the
// configured TTL from now.
func (s *Service) Issue(athleteID int64) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject(strconv.FormatInt(athleteID, 10)).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("type", "app").
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return string(signed), nil
}

// Verify checks the signature and validity window and returns the subject
// athlete ID. Any failure maps to ErrInvalidSession.
func (s *Service) Verify(signedSession string) (int64, error) {
	token, err := jwt.Parse([]byte(signedSession),
		jwt.WithKey(jwa.HS256, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if typ, ok := token.Get("type"); !ok || typ != "app" {
		return 0, fmt.Errorf("%w: not an app session", ErrInvalidSession)
	}

	athleteID, err := strconv.ParseInt(token.Subject(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}

	return athleteID, nil
}
