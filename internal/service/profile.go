package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/model"
)

// ProfileService reads and edits the caller's backend profile.
type ProfileService struct {
	canisters *Canisters
	log       zerolog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(canisters *Canisters, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		canisters: canisters,
		log:       log.With().Str("component", "profile_service").Logger(),
	}
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, sess *auth.Session) (model.User, error) {
	return s.canisters.Backend(sess.Token).GetUser(ctx)
}

// Update applies req, filling the original defaults for blank age and gender.
func (s *ProfileService) Update(ctx context.Context, sess *auth.Session, req model.UpdateUserRequest) (model.User, error) {
	user, err := s.canisters.Backend(sess.Token).UpdateUser(ctx, req.ToUpdate())
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	sess.User = &user
	s.log.Info().Str("principal", sess.Principal.String()).Msg("Profile updated")
	return user, nil
}
