// Package journal records every settled mutation so the operator can review
// what the client changed and what failed.
package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/nullscape-admin/internal/errs"
	"github.com/and161185/nullscape-admin/internal/model"
	"github.com/and161185/nullscape-admin/internal/mutation"
	"github.com/and161185/nullscape-admin/internal/repository"
)

// Recorder turns mutation outcomes into journal entries. Writes are best
// effort: a failing store is logged and never fails the mutation.
type Recorder struct {
	repo repository.JournalRepository
	log  *zap.Logger
}

// NewRecorder writes to repo.
func NewRecorder(repo repository.JournalRepository, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{repo: repo, log: log}
}

var _ mutation.Observer = (*Recorder)(nil)

// Settled implements mutation.Observer.
func (r *Recorder) Settled(ctx context.Context, o mutation.Outcome) {
	id, err := uuid.NewV4()
	if err != nil {
		r.log.Warn("journal id", zap.Error(err))
		return
	}
	e := &model.JournalEntry{
		ID:         id,
		Name:       o.Name,
		Seq:        int64(o.Seq),
		OK:         o.Err == nil,
		Message:    o.Message,
		Superseded: o.Superseded,
		StartedAt:  o.Started.UTC(),
		FinishedAt: o.Finished.UTC(),
	}
	// The caller's context may already be done when a cancelled call settles.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.repo.Append(wctx, e); err != nil {
		r.log.Warn("journal append", zap.String("name", o.Name), zap.Error(err))
	}
}

// Memory is an in-process JournalRepository.
type Memory struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

// NewMemory returns an empty journal.
func NewMemory() *Memory { return &Memory{} }

// Append implements repository.JournalRepository.
func (m *Memory) Append(ctx context.Context, e *model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.entries {
		if have.ID == e.ID {
			return errs.ErrConflict
		}
	}
	m.entries = append(m.entries, *e)
	return nil
}

// Recent implements repository.JournalRepository.
func (m *Memory) Recent(ctx context.Context, limit int) ([]model.JournalEntry, error) {
	m.mu.Lock()
	out := append([]model.JournalEntry(nil), m.entries...)
	m.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinishedAt.After(out[j].FinishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Prune implements repository.JournalRepository.
func (m *Memory) Prune(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.FinishedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}
