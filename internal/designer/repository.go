package designer

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type DraftRepository interface {
	Upsert(ctx context.Context, draft *LayoutDraft) error
	GetByEventID(ctx context.Context, eventID string) (*LayoutDraft, error)
	DeleteByEventID(ctx context.Context, eventID string) error
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository returns nil when no database is configured.
func NewDraftRepository(db *gorm.DB) DraftRepository {
	if db == nil {
		return nil
	}
	return &draftRepository{db: db}
}

func (r *draftRepository) Upsert(ctx context.Context, draft *LayoutDraft) error {
	var existing LayoutDraft
	return r.db.WithContext(ctx).
		Where(LayoutDraft{EventID: draft.EventID}).
		Assign(LayoutDraft{
			LayoutJSON: draft.LayoutJSON,
			SeatCount:  draft.SeatCount,
			LastError:  draft.LastError,
		}).
		FirstOrCreate(&existing).Error
}

func (r *draftRepository) GetByEventID(ctx context.Context, eventID string) (*LayoutDraft, error) {
	var draft LayoutDraft
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) DeleteByEventID(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&LayoutDraft{}).Error
}
