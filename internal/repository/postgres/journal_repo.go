package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/nullscape-admin/internal/errs"
	"github.com/and161185/nullscape-admin/internal/model"
)

// JournalRepo implements JournalRepository using PostgreSQL.
type JournalRepo struct{ db *DB }

// NewJournalRepo constructs a journal repository.
func NewJournalRepo(db *DB) *JournalRepo { return &JournalRepo{db: db} }

// Append inserts one journal row.
func (r *JournalRepo) Append(ctx context.Context, e *model.JournalEntry) error {
	const q = `
INSERT INTO mutation_journal (id, name, seq, ok, message, superseded, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q, e.ID, e.Name, e.Seq, e.OK, e.Message, e.Superseded, e.StartedAt, e.FinishedAt)
	if isDuplicate(err) {
		return errs.ErrConflict
	}
	return err
}

// Recent selects the newest entries.
func (r *JournalRepo) Recent(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	const q = `
SELECT id, name, seq, ok, message, superseded, started_at, finished_at
FROM mutation_journal
ORDER BY finished_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		if err = rows.Scan(&e.ID, &e.Name, &e.Seq, &e.OK, &e.Message, &e.Superseded, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune deletes rows finished before the cutoff.
func (r *JournalRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	const q = `DELETE FROM mutation_journal WHERE finished_at < $1`
	tag, err := r.db.Pool.Exec(ctx, q, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
