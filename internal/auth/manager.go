package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
)

// Common auth errors.
var (
	ErrTokenInvalid    = errors.New("identity token is invalid")
	ErrSessionNotFound = errors.New("session not found or logged out")
)

// UserLoader fetches the caller's profile with the caller's own identity.
type UserLoader interface {
	GetUser(ctx context.Context) (model.User, error)
}

// LoaderFunc binds a loader to an identity token.
type LoaderFunc func(token string) UserLoader

// Manager validates identity tokens and tracks logged-in sessions.
type Manager struct {
	secret   []byte
	registry Registry
	users    LoaderFunc
	now      func() time.Time
	log      zerolog.Logger
}

// NewManager creates a Manager that verifies HS256 tokens signed with secret.
func NewManager(secret string, registry Registry, users LoaderFunc, log zerolog.Logger) *Manager {
	return &Manager{
		secret:   []byte(secret),
		registry: registry,
		users:    users,
		now:      time.Now,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Login validates token, registers its session and loads the caller profile.
// A backend err on getUser means the caller has no profile yet and yields a
// session with a nil User; a transport failure fails the login.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	claims, principal, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil, ErrTokenInvalid
	}
	if err := m.registry.Register(ctx, claims.ID, principal.String(), ttl); err != nil {
		return nil, err
	}

	s := &Session{
		ID:        claims.ID,
		Principal: principal,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	user, err := m.users(token).GetUser(ctx)
	switch {
	case err == nil:
		s.User = &user
	case canister.IsResultError(err):
		m.log.Debug().Str("principal", principal.String()).Msg("Caller has no profile yet")
	default:
		if rerr := m.registry.Revoke(ctx, claims.ID); rerr != nil {
			m.log.Warn().Err(rerr).Msg("Failed to revoke session after failed login")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	m.log.Info().
		Str("principal", principal.String()).
		Bool("has_profile", s.HasProfile()).
		Msg("Login")
	return s, nil
}

// Resume rebuilds the session of an already logged-in token. The profile is
// not loaded.
func (m *Manager) Resume(ctx context.Context, token string) (*Session, error) {
	claims, principal, err := m.parse(token)
	if err != nil {
		return nil, err
	}
	registered, err := m.registry.Lookup(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if registered != principal.String() {
		return nil, ErrSessionNotFound
	}
	return &Session{
		ID:        claims.ID,
		Principal: principal,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout ends the session.
func (m *Manager) Logout(ctx context.Context, s *Session) error {
	if s == nil {
		return nil
	}
	if err := m.registry.Revoke(ctx, s.ID); err != nil {
		return err
	}
	m.log.Info().Str("principal", s.Principal.String()).Msg("Logout")
	return nil
}

func (m *Manager) parse(tokenStr string) (*Claims, ledger.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ledger.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ledger.Principal{}, ErrTokenInvalid
	}
	principal, err := ledger.ParsePrincipal(claims.Subject)
	if err != nil {
		return nil, ledger.Principal{}, fmt.Errorf("%w: subject: %v", ErrTokenInvalid, err)
	}
	return claims, principal, nil
}

// IssueToken signs an identity token for principal. The gateway never issues
// tokens in production; this serves the dev CLI and the end-to-end tests.
func IssueToken(secret, principal string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
