package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/response"
)

// JournalReader pages through persisted journal entries.
type JournalReader interface {
	ListByForm(ctx context.Context, formID string, limit, offset int) ([]model.JournalEntry, int, error)
}

// JournalService queues sync journal entries for the persistence worker and
// serves them back to form creators.
type JournalService struct {
	rdb   *redis.Client
	repo  JournalReader
	forms *FormService
	log   zerolog.Logger
}

// NewJournalService creates a new JournalService.
func NewJournalService(rdb *redis.Client, repo JournalReader, forms *FormService, log zerolog.Logger) *JournalService {
	return &JournalService{
		rdb:   rdb,
		repo:  repo,
		forms: forms,
		log:   log.With().Str("component", "journal_service").Logger(),
	}
}

// Record implements editor.Journal. The entry is pushed onto the Redis queue;
// a failed push is logged and dropped.
func (s *JournalService) Record(ctx context.Context, entry model.JournalEntry) {
	log := s.log.With().
		Str("form_id", entry.FormID).
		Str("kind", string(entry.Kind)).
		Uint64("version", entry.Version).
		Logger()

	if s.rdb == nil {
		log.Debug().Bool("ok", entry.OK).Msg("Journal entry not queued, no redis")
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode journal entry")
		return
	}
	if err := s.rdb.RPush(context.WithoutCancel(ctx), config.WorkerKey.PersistJournalQueue, payload).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to queue journal entry")
	}
}

// List returns a page of the form's journal. Only the creator may read it.
func (s *JournalService) List(ctx context.Context, sess *auth.Session, formID string, page, perPage int) ([]model.JournalEntry, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	if _, err := s.forms.RequireCreator(ctx, sess, formID); err != nil {
		return nil, nil, err
	}

	entries, total, err := s.repo.ListByForm(ctx, formID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return entries, response.NewPagination(page, perPage, total), nil
}
