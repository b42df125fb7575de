package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/surveychain/internal/model"
)

// JournalRepository handles sync journal data access.
type JournalRepository struct {
	pool *pgxpool.Pool
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{pool: pool}
}

// InsertBatch writes entries in one round trip. Entries already present are skipped,
// so a batch pushed back after a partial failure can be replayed.
func (r *JournalRepository) InsertBatch(ctx context.Context, entries []model.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO sync_journal (id, form_id, principal, kind, version, ok, error, detail, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO NOTHING`,
			e.ID, e.FormID, e.Principal, string(e.Kind), int64(e.Version), e.OK, e.Error, e.Detail, e.CreatedAt,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert journal entry: %w", err)
		}
	}
	return nil
}

// ListByForm returns a page of a form's journal, newest first, plus the total count.
func (r *JournalRepository) ListByForm(ctx context.Context, formID string, limit, offset int) ([]model.JournalEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sync_journal WHERE form_id = $1`, formID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count journal: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, form_id, principal, kind, version, ok, error, detail, created_at
		 FROM sync_journal
		 WHERE form_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, formID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		var (
			e       model.JournalEntry
			kind    string
			version int64
		)
		if err := rows.Scan(&e.ID, &e.FormID, &e.Principal, &kind, &version, &e.OK, &e.Error, &e.Detail, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan journal: %w", err)
		}
		e.Kind = model.JournalKind(kind)
		e.Version = uint64(version)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
