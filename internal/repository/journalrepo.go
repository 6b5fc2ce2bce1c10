// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/nullscape-admin/internal/model"
)

// JournalRepository stores settled mutations.
type JournalRepository interface {
	// Append inserts one entry.
	Append(ctx context.Context, e *model.JournalEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.JournalEntry, error)
	// Prune deletes entries finished before the cutoff and reports how many went.
	Prune(ctx context.Context, before time.Time) (int64, error)
}
