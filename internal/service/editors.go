package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/auth"
	"github.com/stemsi/surveychain/internal/editor"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
	"github.com/stemsi/surveychain/internal/websocket"
)

// EditorService keeps one live editing session per form for its creator.
type EditorService struct {
	mu       sync.Mutex
	sessions map[string]*editor.Session

	canisters *Canisters
	forms     *FormService
	notifier  *NotificationService
	journal   editor.Journal
	treasury  ledger.Principal
	delay     time.Duration
	log       zerolog.Logger
}

// NewEditorService creates a new EditorService.
func NewEditorService(
	canisters *Canisters,
	forms *FormService,
	notifier *NotificationService,
	journal editor.Journal,
	treasury ledger.Principal,
	delay time.Duration,
	log zerolog.Logger,
) *EditorService {
	return &EditorService{
		sessions:  make(map[string]*editor.Session),
		canisters: canisters,
		forms:     forms,
		notifier:  notifier,
		journal:   journal,
		treasury:  treasury,
		delay:     delay,
		log:       log.With().Str("component", "editor_service").Logger(),
	}
}

// Open loads the form into an editing session, or returns the existing one
// rebound to the caller's current identity token.
func (s *EditorService) Open(ctx context.Context, sess *auth.Session, formID string) (*editor.Session, error) {
	if es, err := s.Get(sess, formID); err == nil {
		return es, nil
	}

	form, err := s.forms.RequireCreator(ctx, sess, formID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if es, ok := s.sessions[formID]; ok {
		es.Bind(s.canisters.Backend(sess.Token), s.canisters.Ledger(sess.Token))
		return es, nil
	}

	es, err := editor.New(form, s.canisters.Backend(sess.Token), s.canisters.Ledger(sess.Token), editor.Options{
		Delay:    s.delay,
		Treasury: s.treasury,
		Notifier: s.notifier,
		Journal:  s.journal,
		Log:      s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("open editor: %w", err)
	}
	s.sessions[formID] = es

	s.log.Info().Str("form_id", formID).Str("principal", sess.Principal.String()).Msg("Editor opened")
	return es, nil
}

// Get returns the open session for formID rebound to the caller's token.
func (s *EditorService) Get(sess *auth.Session, formID string) (*editor.Session, error) {
	s.mu.Lock()
	es, ok := s.sessions[formID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrEditorNotOpen
	}
	if !es.Creator().Equal(sess.Principal) {
		return nil, ErrNotCreator
	}
	es.Bind(s.canisters.Backend(sess.Token), s.canisters.Ledger(sess.Token))
	return es, nil
}

// Resync discards local edits and reloads the form, then tells other tabs.
func (s *EditorService) Resync(ctx context.Context, sess *auth.Session, formID string) (editor.View, error) {
	es, err := s.Get(sess, formID)
	if err != nil {
		return editor.View{}, err
	}
	if err := es.Resync(ctx); err != nil {
		return editor.View{}, err
	}
	view := es.View()
	s.notifier.Publish(ctx, websocket.FormEvent{Event: websocket.EventResynced, FormID: formID, Version: view.Version})
	return view, nil
}

// Publish runs the publish sequence and refreshes the public catalogue on success.
func (s *EditorService) Publish(ctx context.Context, sess *auth.Session, formID string, metadata model.Metadata) (uint64, error) {
	es, err := s.Get(sess, formID)
	if err != nil {
		return 0, err
	}
	block, err := es.Publish(ctx, metadata)
	if err != nil {
		return block, err
	}
	s.forms.InvalidateCatalogue(ctx)
	return block, nil
}

// Close flushes and forgets the form's session.
func (s *EditorService) Close(ctx context.Context, sess *auth.Session, formID string) error {
	es, err := s.Get(sess, formID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, formID)
	s.mu.Unlock()

	s.log.Info().Str("form_id", formID).Msg("Editor closed")
	return es.Close(ctx)
}

// CloseIdle closes sessions untouched since cutoff. It implements worker.IdleCloser.
func (s *EditorService) CloseIdle(ctx context.Context, cutoff time.Time) int {
	s.mu.Lock()
	idle := make(map[string]*editor.Session)
	for id, es := range s.sessions {
		if v := es.View(); v.Publishing {
			continue
		}
		if es.IdleSince().Before(cutoff) {
			idle[id] = es
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for id, es := range idle {
		if err := es.Close(ctx); err != nil {
			s.log.Warn().Err(err).Str("form_id", id).Msg("Idle editor closed with unsynced edits")
		}
	}
	return len(idle)
}

// CloseAll flushes every session. Used on shutdown.
func (s *EditorService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*editor.Session)
	s.mu.Unlock()

	for id, es := range all {
		if err := es.Close(ctx); err != nil {
			s.log.Warn().Err(err).Str("form_id", id).Msg("Editor closed with unsynced edits")
		}
	}
	s.log.Info().Int("count", len(all)).Msg("Editors closed")
}

// Len returns the number of open sessions.
func (s *EditorService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
