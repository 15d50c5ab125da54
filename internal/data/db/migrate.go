package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// Listing a thread walks comments by (task_id, created_at).
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_comment_task_created ON comment (task_id, created_at, id)`).Error; err != nil {
		return fmt.Errorf("create comment index: %w", err)
	}
	return nil
}
