package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/ledger"
	"github.com/stemsi/surveychain/internal/model"
)

// DefaultDelay is the trailing-edge debounce applied to persistence.
const DefaultDelay = time.Second

// Item is one row of the editable view: a question plus a session-local key
// that keeps list positions stable across reorders. The key never leaves the
// session; outbound calls only see model.Question.
type Item struct {
	Key      uuid.UUID      `json:"key"`
	Question model.Question `json:"question"`
}

// View is a read-only copy of the session state.
type View struct {
	FormID     string         `json:"form_id"`
	Creator    string         `json:"creator"`
	Items      []Item         `json:"items"`
	Metadata   model.Metadata `json:"metadata"`
	Version    uint64         `json:"version"`
	Synced     uint64         `json:"synced_version"`
	Dirty      bool           `json:"dirty"`
	Publishing bool           `json:"publishing"`
	Published  bool           `json:"published"`
	LastError  string         `json:"last_error,omitempty"`
}

// Options configures a Session. Zero values get defaults.
type Options struct {
	Delay     time.Duration
	Treasury  ledger.Principal
	Scheduler Scheduler
	Notifier  Notifier
	Journal   Journal
	Log       zerolog.Logger
	Now       func() time.Time
}

type snapshot struct {
	version       uint64
	edits         uint64
	questionEdits uint64
	metadata      model.Metadata
	questions     []model.Question
}

// Session is the mutable working copy of one form.
//
// Every mutation re-arms a trailing-edge debounce; when it fires, one
// updateFormMetadata + setFormQuestions pair carries the whole state. Each pair
// is stamped with a monotonic version and its outcome is applied only if no
// newer snapshot has been issued since. Failed syncs keep the local copy and
// leave the session dirty; the next edit, Flush or Resync recovers.
type Session struct {
	mu     sync.Mutex
	sendMu sync.Mutex

	formID   string
	creator  ledger.Principal
	treasury ledger.Principal
	items    []Item
	metadata model.Metadata

	store Store
	payer Payer

	delay    time.Duration
	sched    Scheduler
	notifier Notifier
	journal  Journal
	now      func() time.Time
	log      zerolog.Logger

	timer               Timer
	version             uint64
	syncedVersion       uint64
	edits               uint64
	syncedEdits         uint64
	questionEdits       uint64
	syncedQuestionEdits uint64
	lastErr             error
	publishing          bool
	published           bool
	closed              bool
	lastActivity        time.Time
}

// New opens a session over form. A form without questions is seeded with one
// default question, which is scheduled for persistence like any other edit.
func New(form model.Form, store Store, payer Payer, opts Options) (*Session, error) {
	creator, err := ledger.ParsePrincipal(form.Creator)
	if err != nil {
		return nil, fmt.Errorf("parse form creator: %w", err)
	}

	s := &Session{
		formID:   form.ID,
		creator:  creator,
		treasury: opts.Treasury,
		store:    store,
		payer:    payer,
		delay:    opts.Delay,
		sched:    opts.Scheduler,
		notifier: opts.Notifier,
		journal:  opts.Journal,
		now:      opts.Now,
		log: opts.Log.With().
			Str("component", "editor").
			Str("form_id", form.ID).
			Logger(),
	}
	if s.delay <= 0 {
		s.delay = DefaultDelay
	}
	if s.sched == nil {
		s.sched = realScheduler{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.journal == nil {
		s.journal = nopJournal{}
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.load(form)
	if len(s.items) == 0 && !s.published {
		s.items = append(s.items, newItem(model.NewQuestion(form.ID)))
		s.touch(true)
	}
	return s, nil
}

func newItem(q model.Question) Item {
	return Item{Key: uuid.New(), Question: q}
}

// load replaces the working copy with a server form. Caller holds mu or owns s.
func (s *Session) load(form model.Form) {
	s.items = make([]Item, len(form.Questions))
	for i, q := range form.Questions {
		q.FormID = form.ID
		s.items[i] = newItem(q.Clone())
	}
	s.metadata = form.Metadata.Clone()
	s.published = form.Metadata.Published
	s.syncedEdits = s.edits
	s.syncedQuestionEdits = s.questionEdits
	s.lastErr = nil
	s.lastActivity = s.now()
}

// FormID returns the id of the edited form.
func (s *Session) FormID() string { return s.formID }

// Creator returns the principal owning the form.
func (s *Session) Creator() ledger.Principal { return s.creator }

// Bind swaps the outbound collaborators, e.g. when the creator presents a
// fresh identity token. Pending timers use the new binding.
func (s *Session) Bind(store Store, payer Payer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store
	s.payer = payer
}

// View returns a deep copy of the current state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, len(s.items))
	for i, it := range s.items {
		items[i] = Item{Key: it.Key, Question: it.Question.Clone()}
	}
	v := View{
		FormID:     s.formID,
		Creator:    s.creator.String(),
		Items:      items,
		Metadata:   s.metadata.Clone(),
		Version:    s.version,
		Synced:     s.syncedVersion,
		Dirty:      s.edits != s.syncedEdits,
		Publishing: s.publishing,
		Published:  s.published,
	}
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	return v
}

// Questions returns the wire form of the question list, keys stripped.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionsLocked()
}

func (s *Session) questionsLocked() []model.Question {
	out := make([]model.Question, len(s.items))
	for i, it := range s.items {
		out[i] = it.Question.Clone()
	}
	return out
}

// IdleSince reports the time of the last edit or load.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// ─── Mutations ──────────────────────────────────────────────────────

// AddQuestion appends a required, untitled Essay question and returns its key.
func (s *Session) AddQuestion() (uuid.UUID, error) {
	var key uuid.UUID
	err := s.mutate(true, func() error {
		it := newItem(model.NewQuestion(s.formID))
		s.items = append(s.items, it)
		key = it.Key
		return nil
	})
	return key, err
}

// DuplicateQuestion deep-copies the question at index and inserts the copy,
// under a new key, right after it.
func (s *Session) DuplicateQuestion(index int) (uuid.UUID, error) {
	var key uuid.UUID
	err := s.mutate(true, func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		it := newItem(s.items[index].Question.Clone())
		s.items = append(s.items, Item{})
		copy(s.items[index+2:], s.items[index+1:])
		s.items[index+1] = it
		key = it.Key
		return nil
	})
	return key, err
}

// RemoveQuestion deletes the question at index. The last question cannot be removed.
func (s *Session) RemoveQuestion(index int) error {
	return s.mutate(true, func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		if len(s.items) <= 1 {
			return ErrLastQuestion
		}
		s.items = append(s.items[:index], s.items[index+1:]...)
		return nil
	})
}

// UpdateQuestion replaces the question at index, keeping its key.
func (s *Session) UpdateQuestion(index int, q model.Question) error {
	return s.mutate(true, func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		if err := model.ValidateQuestion(q); err != nil {
			return err
		}
		q = q.Clone()
		q.FormID = s.formID
		if q.QuestionType == nil {
			q.QuestionType = model.Essay{}
		}
		s.items[index].Question = q
		return nil
	})
}

// ChangeQuestionType switches the variant of the question at index.
func (s *Session) ChangeQuestionType(index int, kind model.QuestionKind) error {
	return s.editQuestion(index, func(q model.Question) (model.Question, error) {
		return model.ChangeType(q, kind), nil
	})
}

// AddOption appends an option to the question at index.
func (s *Session) AddOption(index int) error {
	return s.editQuestion(index, model.AddOption)
}

// UpdateOption relabels one option of the question at index.
func (s *Session) UpdateOption(index, option int, value string) error {
	return s.editQuestion(index, func(q model.Question) (model.Question, error) {
		return model.UpdateOption(q, option, value)
	})
}

// RemoveOption drops one option of the question at index, down to the floor of two.
func (s *Session) RemoveOption(index, option int) error {
	return s.editQuestion(index, func(q model.Question) (model.Question, error) {
		return model.RemoveOption(q, option)
	})
}

// Reorder moves the question at from to position to; all other questions keep
// their relative order.
func (s *Session) Reorder(from, to int) error {
	return s.mutate(true, func() error {
		if err := s.checkIndex(from); err != nil {
			return err
		}
		if err := s.checkIndex(to); err != nil {
			return err
		}
		if from == to {
			return nil
		}
		moved := s.items[from]
		rest := append(s.items[:from:from], s.items[from+1:]...)
		out := make([]Item, 0, len(s.items))
		out = append(out, rest[:to]...)
		out = append(out, moved)
		out = append(out, rest[to:]...)
		s.items = out
		return nil
	})
}

// UpdateMetadataField merges one metadata field.
func (s *Session) UpdateMetadataField(field model.MetadataField, value any) error {
	return s.mutate(false, func() error {
		return s.metadata.SetField(field, value)
	})
}

func (s *Session) editQuestion(index int, fn func(model.Question) (model.Question, error)) error {
	return s.mutate(true, func() error {
		if err := s.checkIndex(index); err != nil {
			return err
		}
		q, err := fn(s.items[index].Question)
		if err != nil {
			return err
		}
		s.items[index].Question = q
		return nil
	})
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(s.items))
	}
	return nil
}

func (s *Session) mutate(questions bool, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return ErrClosed
	case s.published:
		return ErrPublished
	case s.publishing:
		return ErrPublishing
	}
	if err := fn(); err != nil {
		return err
	}
	s.touch(questions)
	return nil
}

// touch records an edit and re-arms the debounce. Caller holds mu.
func (s *Session) touch(questions bool) {
	s.edits++
	if questions {
		s.questionEdits++
	}
	s.lastActivity = s.now()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.sched.AfterFunc(s.delay, s.fire)
}

func (s *Session) fire() {
	if err := s.Flush(context.Background()); err != nil {
		s.log.Debug().Err(err).Msg("Debounced sync failed")
	}
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// ─── Synchronization ────────────────────────────────────────────────

// Flush persists pending edits now instead of waiting for the debounce. It is
// also the user-initiated retry after a failed sync.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	if s.published || s.publishing || s.edits == s.syncedEdits {
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	store := s.store
	s.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	err := s.persist(ctx, store, snap)
	s.record(ctx, model.JournalSync, snap.version, err, "")

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.version != s.version {
		s.log.Debug().
			Uint64("version", snap.version).
			Uint64("latest", s.version).
			Msg("Discarding stale sync outcome")
		return nil
	}
	if err != nil {
		s.lastErr = err
		s.log.Warn().Err(err).Uint64("version", snap.version).Msg("Sync failed, keeping local edits")
		s.notifier.Notify(ctx, Notification{Kind: NotifySyncFailed, FormID: s.formID, Version: snap.version, Message: err.Error()})
		return err
	}
	s.markSyncedLocked(snap)
	s.notifier.Notify(ctx, Notification{Kind: NotifySynced, FormID: s.formID, Version: snap.version})
	return nil
}

func (s *Session) snapshotLocked() snapshot {
	s.version++
	return snapshot{
		version:       s.version,
		edits:         s.edits,
		questionEdits: s.questionEdits,
		metadata:      s.metadata.Clone(),
		questions:     s.questionsLocked(),
	}
}

func (s *Session) markSyncedLocked(snap snapshot) {
	s.syncedVersion = snap.version
	s.syncedEdits = snap.edits
	s.syncedQuestionEdits = snap.questionEdits
	s.lastErr = nil
}

func (s *Session) persist(ctx context.Context, store Store, snap snapshot) error {
	if err := store.UpdateFormMetadata(ctx, s.formID, snap.metadata); err != nil {
		return fmt.Errorf("update form metadata: %w", err)
	}
	if err := store.SetFormQuestions(ctx, s.formID, snap.questions); err != nil {
		return fmt.Errorf("set form questions: %w", err)
	}
	return nil
}

// Resync discards local edits and reloads the form from the backend.
func (s *Session) Resync(ctx context.Context) error {
	s.mu.Lock()
	if s.publishing {
		s.mu.Unlock()
		return ErrPublishing
	}
	s.stopTimerLocked()
	store := s.store
	s.mu.Unlock()

	form, err := store.GetForm(ctx, s.formID)
	if err != nil {
		return fmt.Errorf("get form: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// outcomes of anything still in flight are now stale
	s.version++
	s.syncedVersion = s.version
	s.load(form)
	return nil
}

// Close flushes pending edits and stops the session.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.closed = true
	return err
}

// ─── Publishing ─────────────────────────────────────────────────────

// Publish runs the three-step publish sequence: persist metadata (still
// unpublished), pay half the reward pool to the treasury, flip the published
// flag. A failing step stops the sequence; nothing is refunded or retried.
// It returns the ledger block index of the payment.
func (s *Session) Publish(ctx context.Context, metadata model.Metadata) (uint64, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return 0, ErrClosed
	case s.published:
		s.mu.Unlock()
		return 0, ErrPublished
	case s.publishing:
		s.mu.Unlock()
		return 0, ErrPublishing
	}

	metadata = metadata.Clone()
	metadata.Published = false
	metadata.DeriveMaxRespondent()
	if err := metadata.ValidateForPublish(); err != nil {
		s.mu.Unlock()
		return 0, err
	}

	s.stopTimerLocked()
	s.metadata = metadata
	s.edits++
	s.publishing = true
	snap := s.snapshotLocked()
	store, payer := s.store, s.payer
	s.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	defer func() {
		s.mu.Lock()
		s.publishing = false
		s.mu.Unlock()
	}()

	log := s.log.With().Uint64("version", snap.version).Logger()

	// 1. persist metadata with published still false
	err := store.UpdateFormMetadata(ctx, s.formID, snap.metadata)
	if err == nil && snap.questionEdits != s.syncedQuestionEditsSafe() {
		err = store.SetFormQuestions(ctx, s.formID, snap.questions)
	}
	s.record(ctx, model.JournalPublishMetadata, snap.version, err, "")
	if err != nil {
		return 0, s.publishFailed(ctx, log, snap, StepMetadata, err)
	}
	s.mu.Lock()
	s.markSyncedLocked(snap)
	s.mu.Unlock()
	s.notifier.Notify(ctx, Notification{Kind: NotifyPublishStep, FormID: s.formID, Version: snap.version, Step: StepMetadata})

	// 2. ledger payment
	args := ledger.RewardPoolTransfer(s.creator, s.treasury, s.formID, snap.metadata.MaxRewardPool)
	block, err := payer.TransferFrom(ctx, args)
	s.record(ctx, model.JournalPublishTransfer, snap.version, err, fmt.Sprintf("amount=%d block=%d", args.Amount, block))
	if err != nil {
		return 0, s.publishFailed(ctx, log, snap, StepTransfer, err)
	}
	s.notifier.Notify(ctx, Notification{Kind: NotifyPublishStep, FormID: s.formID, Version: snap.version, Step: StepTransfer})

	// 3. flip the flag
	err = store.ChangeFormPublish(ctx, s.formID)
	s.record(ctx, model.JournalPublishFlag, snap.version, err, fmt.Sprintf("block=%d", block))
	if err != nil {
		return block, s.publishFailed(ctx, log, snap, StepFlag, err)
	}

	s.mu.Lock()
	s.published = true
	s.metadata.Published = true
	s.stopTimerLocked()
	s.mu.Unlock()

	log.Info().Uint64("block", block).Uint64("amount", args.Amount).Msg("Form published")
	s.notifier.Notify(ctx, Notification{Kind: NotifyPublished, FormID: s.formID, Version: snap.version})
	return block, nil
}

func (s *Session) syncedQuestionEditsSafe() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncedQuestionEdits
}

func (s *Session) publishFailed(ctx context.Context, log zerolog.Logger, snap snapshot, step PublishStep, err error) error {
	perr := &PublishError{Step: step, Err: err}
	log.Warn().Err(err).Str("step", string(step)).Msg("Publish aborted")

	s.mu.Lock()
	if step == StepMetadata {
		s.lastErr = err
		// the draft is still dirty; retry it through the normal debounce
		if !s.closed {
			s.stopTimerLocked()
			s.timer = s.sched.AfterFunc(s.delay, s.fire)
		}
	}
	s.mu.Unlock()

	s.notifier.Notify(ctx, Notification{
		Kind:    NotifyPublishFailed,
		FormID:  s.formID,
		Version: snap.version,
		Step:    step,
		Message: err.Error(),
	})
	return perr
}

func (s *Session) record(ctx context.Context, kind model.JournalKind, version uint64, err error, detail string) {
	entry := model.JournalEntry{
		ID:        uuid.New(),
		FormID:    s.formID,
		Principal: s.creator.String(),
		Kind:      kind,
		Version:   version,
		OK:        err == nil,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.journal.Record(ctx, entry)
}
