package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/browse"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/summary"
)

// FormService reads and creates forms and caches the public catalogue in Redis.
type FormService struct {
	canisters *Canisters
	rdb       *redis.Client
	cacheTTL  time.Duration
	log       zerolog.Logger
}

// NewFormService creates a new FormService. rdb may be nil, which disables the
// catalogue cache.
func NewFormService(canisters *Canisters, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *FormService {
	return &FormService{
		canisters: canisters,
		rdb:       rdb,
		cacheTTL:  cacheTTL,
		log:       log.With().Str("component", "form_service").Logger(),
	}
}

// Create starts a new form owned by the caller and gives it title when set.
func (s *FormService) Create(ctx context.Context, sess *auth.Session, title string) (model.Form, error) {
	backend := s.canisters.Backend(sess.Token)

	id, err := backend.CreateForm(ctx)
	if err != nil {
		return model.Form{}, fmt.Errorf("create form: %w", err)
	}
	form, err := backend.GetForm(ctx, id)
	if err != nil {
		return model.Form{}, fmt.Errorf("get created form: %w", err)
	}

	if title != "" {
		form.Metadata.Title = title
		if err := backend.UpdateFormMetadata(ctx, id, form.Metadata); err != nil {
			return model.Form{}, fmt.Errorf("set form title: %w", err)
		}
	}

	s.log.Info().Str("form_id", id).Str("principal", sess.Principal.String()).Msg("Form created")
	return form, nil
}

// Get returns one form.
func (s *FormService) Get(ctx context.Context, sess *auth.Session, formID string) (model.Form, error) {
	return s.canisters.Backend(sess.Token).GetForm(ctx, formID)
}

// Owned returns the caller's forms, published or not.
func (s *FormService) Owned(ctx context.Context, sess *auth.Session) ([]model.Form, error) {
	forms, err := s.canisters.Backend(sess.Token).GetOwnedForms(ctx)
	if err != nil {
		return nil, err
	}
	if forms == nil {
		forms = []model.Form{}
	}
	return forms, nil
}

// Browse lists published forms matching q.
func (s *FormService) Browse(ctx context.Context, sess *auth.Session, q browse.Query) ([]model.Form, error) {
	all, err := s.catalogue(ctx, sess)
	if err != nil {
		return nil, err
	}
	return browse.Filter(all, q), nil
}

// Summary aggregates the form's responses into chart series. Only the
// creator may read them.
func (s *FormService) Summary(ctx context.Context, sess *auth.Session, formID string) (summary.Report, error) {
	if _, err := s.RequireCreator(ctx, sess, formID); err != nil {
		return summary.Report{}, err
	}

	rs, err := s.canisters.Backend(sess.Token).GetFormResponseSummary(ctx, formID)
	if err != nil {
		return summary.Report{}, fmt.Errorf("get response summary: %w", err)
	}
	return summary.Build(rs)
}

// RequireCreator loads the form and checks the caller created it.
func (s *FormService) RequireCreator(ctx context.Context, sess *auth.Session, formID string) (model.Form, error) {
	form, err := s.Get(ctx, sess, formID)
	if err != nil {
		return model.Form{}, err
	}
	if form.Creator != sess.Principal.String() {
		return model.Form{}, ErrNotCreator
	}
	return form, nil
}

// InvalidateCatalogue drops the cached getAllForms reply.
func (s *FormService) InvalidateCatalogue(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, config.CacheKey.AllFormsKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate forms catalogue")
	}
}

// catalogue returns getAllForms, served from Redis while fresh.
func (s *FormService) catalogue(ctx context.Context, sess *auth.Session) ([]model.Form, error) {
	key := config.CacheKey.AllFormsKey()

	if s.rdb != nil && s.cacheTTL > 0 {
		raw, err := s.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var forms []model.Form
			if err := json.Unmarshal(raw, &forms); err == nil {
				return forms, nil
			}
			s.log.Warn().Msg("Discarding undecodable forms catalogue")
		case !errors.Is(err, redis.Nil):
			s.log.Warn().Err(err).Msg("Forms catalogue cache read failed")
		}
	}

	forms, err := s.canisters.Backend(sess.Token).GetAllForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all forms: %w", err)
	}

	if s.rdb != nil && s.cacheTTL > 0 {
		if raw, err := json.Marshal(forms); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Forms catalogue cache write failed")
			}
		}
	}
	return forms, nil
}
