package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
)

// Claims are the identity token claims. Subject carries the caller principal.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Session is the explicit authentication context handed to services. It is
// created by Login, revalidated by Resume and ended by Logout.
type Session struct {
	ID        string           `json:"id"`
	Principal ledger.Principal `json:"principal"`
	Token     string           `json:"-"`
	User      *model.User      `json:"user"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// HasProfile reports whether the caller already registered a user profile.
func (s *Session) HasProfile() bool {
	return s != nil && s.User != nil
}
