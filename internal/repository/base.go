// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"playshelf/internal/database"
	"playshelf/internal/models"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// notFoundAsNil turns gorm.ErrRecordNotFound into (nil, nil) for lookups
// where absence is an expected outcome.
func notFoundAsNil[T any](v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, models.NewInternalError(err)
}
