package models

import (
	"time"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// UserModel is the persistence model for the User aggregate root.
type UserModel struct {
	Versioned
	Name         string     `gorm:"type:varchar(100);not null"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone        string     `gorm:"type:varchar(20)"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Role         string     `gorm:"type:varchar(32);not null;index"`
	RestaurantID *uuid.UUID `gorm:"type:uuid;index"`
	Active       bool       `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		PasswordHash:      m.PasswordHash,
		Role:              identity.Role(m.Role),
		RestaurantID:      m.RestaurantID,
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		RestaurantID: u.RestaurantID,
		Active:       u.Active,
		LastLoginAt:  u.LastLoginAt,
	}
	m.Versioned = versionedFrom(u.BaseAggregateRoot)
	return m
}
