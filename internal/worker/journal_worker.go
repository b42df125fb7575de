package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/surveychain/internal/config"
	"github.com/stemsi/surveychain/internal/model"
)

const journalBatchSize = 50

// JournalWriter persists decoded journal entries.
type JournalWriter interface {
	InsertBatch(ctx context.Context, entries []model.JournalEntry) error
}

// JournalWorker consumes persist_journal_queue and inserts entries into PostgreSQL.
type JournalWorker struct {
	repo  JournalWriter
	rdb   *redis.Client
	queue string
	log   zerolog.Logger
}

// NewJournalWorker creates a new JournalWorker.
func NewJournalWorker(repo JournalWriter, rdb *redis.Client, log zerolog.Logger) *JournalWorker {
	return &JournalWorker{
		repo:  repo,
		rdb:   rdb,
		queue: config.WorkerKey.PersistJournalQueue,
		log:   log.With().Str("component", "journal_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *JournalWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *JournalWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	raw := []string{result[1]}
	// Pick up whatever else is already queued so bursts become one batch.
	if more, err := w.rdb.LPopCount(ctx, w.queue, journalBatchSize-1).Result(); err == nil {
		raw = append(raw, more...)
	}

	if err := w.persist(ctx, raw); err != nil {
		w.log.Error().Err(err).Int("count", len(raw)).Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, w.queue, toAny(raw)...)
		time.Sleep(5 * time.Second)
	}
}

func (w *JournalWorker) persist(ctx context.Context, raw []string) error {
	entries, bad := decodeEntries(raw)
	for _, b := range bad {
		w.log.Error().Str("payload", b).Msg("Unmarshal error, dropping entry")
	}
	return w.repo.InsertBatch(ctx, entries)
}

// drain processes all remaining items in the queue before shutdown.
func (w *JournalWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPopCount(ctx, w.queue, journalBatchSize).Result()
		if err != nil || len(raw) == 0 {
			break
		}
		if err := w.persist(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, w.queue, toAny(raw)...)
			break
		}
		drained += len(raw)
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

func decodeEntries(raw []string) ([]model.JournalEntry, []string) {
	entries := make([]model.JournalEntry, 0, len(raw))
	var bad []string
	for _, r := range raw {
		var e model.JournalEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil || e.FormID == "" {
			bad = append(bad, r)
			continue
		}
		entries = append(entries, e)
	}
	return entries, bad
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
