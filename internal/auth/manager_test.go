package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/canister"
	"github.com/stemsi/surveychain/internal/model"
)

const (
	testSecret    = "test-secret"
	testPrincipal = "be2us-64aaa-aaaaa-qaabq-cai"
)

type memRegistry struct {
	mu       sync.Mutex
	sessions map[string]string
	ttls     map[string]time.Duration
}

func newMemRegistry() *memRegistry {
	return &memRegistry{sessions: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *memRegistry) Register(ctx context.Context, id, principal string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = principal
	r.ttls[id] = ttl
	return nil
}

func (r *memRegistry) Lookup(ctx context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return p, nil
}

func (r *memRegistry) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

type stubLoader struct {
	user model.User
	err  error
}

func (l stubLoader) GetUser(ctx context.Context) (model.User, error) { return l.user, l.err }

func newManager(reg Registry, loader stubLoader) *Manager {
	return NewManager(testSecret, reg, func(string) UserLoader { return loader }, zerolog.Nop())
}

func strp(s string) *string { return &s }

func issue(t *testing.T, secret, principal string, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(secret, principal, ttl)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestLoginRegistersSession(t *testing.T) {
	reg := newMemRegistry()
	m := newManager(reg, stubLoader{user: model.User{Name: strp("Ayu")}})

	s, err := m.Login(context.Background(), issue(t, testSecret, testPrincipal, time.Hour))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Principal.String() != testPrincipal || !s.HasProfile() || s.User.Name == nil || *s.User.Name != "Ayu" {
		t.Fatalf("unexpected session %+v", s)
	}
	if reg.sessions[s.ID] != testPrincipal {
		t.Fatal("session not registered")
	}
	if ttl := reg.ttls[s.ID]; ttl <= 0 || ttl > time.Hour {
		t.Fatalf("ttl = %s", ttl)
	}

	resumed, err := m.Resume(context.Background(), s.Token)
	if err != nil || resumed.ID != s.ID {
		t.Fatalf("Resume: %v", err)
	}

	if err := m.Logout(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Resume(context.Background(), s.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}
}

func TestLoginWithoutProfile(t *testing.T) {
	m := newManager(newMemRegistry(), stubLoader{err: &canister.ResultError{Method: "getUser", Message: "User not found"}})

	s, err := m.Login(context.Background(), issue(t, testSecret, testPrincipal, time.Hour))
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.HasProfile() {
		t.Fatal("expected nil user")
	}
}

func TestLoginTransportFailure(t *testing.T) {
	reg := newMemRegistry()
	m := newManager(reg, stubLoader{err: &canister.TransportError{Method: "getUser", Status: 502, Err: errors.New("bad gateway")}})

	if _, err := m.Login(context.Background(), issue(t, testSecret, testPrincipal, time.Hour)); err == nil {
		t.Fatal("expected login failure")
	}
	if len(reg.sessions) != 0 {
		t.Fatal("failed login left a session behind")
	}
}

func TestLoginRejectsBadTokens(t *testing.T) {
	tests := map[string]string{
		"wrong secret":  issue(t, "other", testPrincipal, time.Hour),
		"expired":       issue(t, testSecret, testPrincipal, -time.Minute),
		"bad principal": issue(t, testSecret, "Not-A-Principal", time.Hour),
		"garbage":       "abc.def.ghi",
	}
	m := newManager(newMemRegistry(), stubLoader{})
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Login(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
				t.Fatalf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}
