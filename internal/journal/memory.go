package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"posagent/internal/model"
)

// MemoryRepository is the Repository used in tests and when the agent runs
// without a local database (journal disabled, best-effort only).
type MemoryRepository struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (r *MemoryRepository) Create(_ context.Context, entry *model.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = model.JournalPending
	}
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryRepository) MarkSucceeded(_ context.Context, id uuid.UUID, billID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Status = model.JournalSucceeded
			r.entries[i].BillID = &billID
		}
	}
	return nil
}

func (r *MemoryRepository) MarkAmbiguous(_ context.Context, id uuid.UUID, cause string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Status = model.JournalAmbiguous
			r.entries[i].Error = &cause
		}
	}
	return nil
}

func (r *MemoryRepository) List(_ context.Context, register string, limit int) ([]model.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.JournalEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if register == "" || r.entries[i].Register == register {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

func (r *MemoryRepository) PurgeOlderThan(_ context.Context, age time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-age)
	kept := r.entries[:0]
	var purged int64
	for _, e := range r.entries {
		if e.CreatedAt.Before(cutoff) && e.Status != model.JournalAmbiguous {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return purged, nil
}

var _ Repository = (*MemoryRepository)(nil)
