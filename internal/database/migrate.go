package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-mealgen/backend/internal/model"
)

// Migrate creates or updates the recipe schema. On PostgreSQL the pgvector
// extension is installed first.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("failed to install pgvector extension: %w", err)
		}
	}

	if err := db.AutoMigrate(&model.Recipe{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
