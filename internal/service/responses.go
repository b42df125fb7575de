package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/answer"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/model"
)

// ResponseService collects and submits answers to published forms.
type ResponseService struct {
	canisters *Canisters
	forms     *FormService
	journal   editor.Journal
	now       func() time.Time
	log       zerolog.Logger
}

// NewResponseService creates a new ResponseService.
func NewResponseService(canisters *Canisters, forms *FormService, journal editor.Journal, log zerolog.Logger) *ResponseService {
	return &ResponseService{
		canisters: canisters,
		forms:     forms,
		journal:   journal,
		now:       time.Now,
		log:       log.With().Str("component", "response_service").Logger(),
	}
}

// Submit validates raw answers against the live form and sends them. Each raw
// entry is one answer variant or null for an unanswered question.
func (s *ResponseService) Submit(ctx context.Context, sess *auth.Session, formID string, raws []json.RawMessage) error {
	backend := s.canisters.Backend(sess.Token)

	form, err := backend.GetForm(ctx, formID)
	if err != nil {
		return err
	}

	c := answer.NewCollection(form)
	for i, raw := range raws {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		value, err := model.UnmarshalAnswer(raw)
		if err != nil {
			return &answer.MalformedError{Index: i, Reason: err.Error()}
		}
		if err := c.SetAnswer(i, value); err != nil {
			return err
		}
	}

	now := s.now()
	err = c.Submit(ctx, backend, now)

	var verr *answer.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, answer.ErrNotPublished), errors.Is(err, answer.ErrDeadlinePassed):
		// refused locally, nothing was sent
		return err
	}

	entry := model.JournalEntry{
		ID:        uuid.New(),
		FormID:    formID,
		Principal: sess.Principal.String(),
		Kind:      model.JournalResponseSubmit,
		OK:        err == nil,
		Detail:    fmt.Sprintf("answers=%d", c.Len()),
		CreatedAt: now,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.journal.Record(ctx, entry)

	if err != nil {
		s.log.Warn().Err(err).Str("form_id", formID).Msg("Response submission failed")
		return err
	}
	s.forms.InvalidateCatalogue(ctx)
	s.log.Info().Str("form_id", formID).Str("principal", sess.Principal.String()).Msg("Response submitted")
	return nil
}
