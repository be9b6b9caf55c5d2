package persistence

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// updateVersioned writes values to the row with id only while its version
// still equals expected, bumping the version in the same statement. A miss
// is reported as shared.ErrNotFound or shared.ErrConcurrencyConflict.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, op string, id uuid.UUID, expected int, values map[string]any) error {
	values["version"] = gorm.Expr("version + 1")
	values["updated_at"] = shared.Now()

	result := db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, expected).
		Updates(values)
	if result.Error != nil {
		return translateError(op, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(op, err)
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}
