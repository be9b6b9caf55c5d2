package models

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Record holds the primary key and timestamps of every table
type Record struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func recordFrom(e shared.BaseEntity) Record {
	return Record{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (r Record) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// Versioned adds the optimistic lock column used by aggregate tables.
// Repositories compare it in the WHERE clause of every update.
type Versioned struct {
	Record
	Version int `gorm:"not null;default:1"`
}

func versionedFrom(a shared.BaseAggregateRoot) Versioned {
	return Versioned{Record: recordFrom(a.BaseEntity), Version: a.Version}
}

func (v Versioned) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: v.entity(), Version: v.Version}
}

// All lists every model in foreign key order, for AutoMigrate on SQLite
func All() []any {
	return []any{
		&UserModel{},
		&RestaurantModel{},
		&MenuItemModel{},
		&OrderModel{},
		&PaymentModel{},
		&BatchModel{},
		&ReviewModel{},
		&StatusAuditModel{},
	}
}
