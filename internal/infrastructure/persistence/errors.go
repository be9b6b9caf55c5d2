package persistence

import (
	"errors"

	"github.com/foodontracks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps GORM errors onto domain errors. Anything that is not a
// known domain condition becomes a PersistenceError tagged with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewValidationError("Referenced record does not exist")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return shared.NewValidationError("Value violates a data constraint")
	}
	return shared.NewPersistenceError(op, err)
}
