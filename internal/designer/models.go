package designer

import (
	"errors"
	"fmt"
	"time"

	"seatstudio/internal/layout"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LayoutDraft keeps the last layout that failed to reach the seating service
// so the organizer can resume it.
type LayoutDraft struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID    string    `json:"event_id" gorm:"uniqueIndex;not null;size:64"`
	LayoutJSON string    `json:"layout_json" gorm:"type:text;not null"`
	SeatCount  int       `json:"seat_count"`
	LastError  string    `json:"last_error" gorm:"size:1000"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (LayoutDraft) TableName() string {
	return "layout_drafts"
}

func (d *LayoutDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// OriginDraft marks a session resumed from a local draft.
const OriginDraft layout.Origin = "draft"

// DragPhase is the stage of a drag gesture.
type DragPhase string

const (
	DragStart DragPhase = "start"
	DragMove  DragPhase = "move"
	DragEnd   DragPhase = "end"
)

var (
	ErrSessionNotFound = errors.New("designer session not found")
	ErrSessionClosed   = errors.New("designer session closed")
	ErrSaveInProgress  = errors.New("a save for this layout is already in progress")
	ErrDraftNotFound   = errors.New("no draft for this event")
	ErrDraftsDisabled  = errors.New("draft storage is not configured")
	ErrInvalidPhase    = errors.New("invalid drag phase")
)

// SaveFailure is returned when the seating service did not accept a layout.
type SaveFailure struct {
	EventID   string
	DraftKept bool
	Cause     error
}

func (e *SaveFailure) Error() string {
	if e.DraftKept {
		return fmt.Sprintf("failed to save layout for event %s (kept as draft): %v", e.EventID, e.Cause)
	}
	return fmt.Sprintf("failed to save layout for event %s: %v", e.EventID, e.Cause)
}

func (e *SaveFailure) Unwrap() error {
	return e.Cause
}
