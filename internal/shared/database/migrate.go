package database

import (
	"fmt"

	"seatstudio/internal/designer"

	"gorm.io/gorm"
)

// Migrate creates the draft table. Layouts themselves live in the seating
// service and are never stored here.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&designer.LayoutDraft{}); err != nil {
		return fmt.Errorf("failed to migrate layout drafts: %w", err)
	}
	return nil
}
