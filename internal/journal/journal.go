// Package journal keeps a local audit trail of checkout attempts. The agent
// cannot always tell whether a failed submission reached the backend, so
// every attempt is recorded before the upstream call and resolved after it;
// ambiguous entries are what the operator reconciles against the backend's
// bills list.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"posagent/internal/model"
)

// Repository is the journal's data access contract. Services depend on this
// interface, not on the GORM implementation, so tests can run in memory.
type Repository interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
	MarkSucceeded(ctx context.Context, id uuid.UUID, billID int64) error
	MarkAmbiguous(ctx context.Context, id uuid.UUID, cause string) error
	List(ctx context.Context, register string, limit int) ([]model.JournalEntry, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type gormRepo struct{ db *gorm.DB }

func NewRepository(db *gorm.DB) Repository { return &gormRepo{db: db} }

func (r *gormRepo) Create(ctx context.Context, entry *model.JournalEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = model.JournalPending
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormRepo) MarkSucceeded(ctx context.Context, id uuid.UUID, billID int64) error {
	return r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  model.JournalSucceeded,
			"bill_id": billID,
		}).Error
}

func (r *gormRepo) MarkAmbiguous(ctx context.Context, id uuid.UUID, cause string) error {
	return r.db.WithContext(ctx).Model(&model.JournalEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": model.JournalAmbiguous,
			"error":  cause,
		}).Error
}

func (r *gormRepo) List(ctx context.Context, register string, limit int) ([]model.JournalEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Model(&model.JournalEntry{}).Order("created_at DESC").Limit(limit)
	if register != "" {
		q = q.Where("register = ?", register)
	}
	var entries []model.JournalEntry
	err := q.Find(&entries).Error
	return entries, err
}

func (r *gormRepo) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	// ambiguous entries are never purged automatically — they represent
	// unresolved money and someone has to look at them
	res := r.db.WithContext(ctx).
		Where("created_at < ? AND status <> ?", cutoff, model.JournalAmbiguous).
		Delete(&model.JournalEntry{})
	return res.RowsAffected, res.Error
}
