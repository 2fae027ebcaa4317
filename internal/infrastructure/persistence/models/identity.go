package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketplace/backend/internal/domain/identity"
)

// UserModel is the persistence model for the identity context's User read
// model.
type UserModel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primary_key"`
	Email     string        `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      string        `gorm:"type:varchar(200);not null"`
	Role      identity.Role `gorm:"type:varchar(20);not null;index"`
	Active    bool          `gorm:"not null;default:true"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User read model.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:     m.ID,
		Email:  m.Email,
		Name:   m.Name,
		Role:   m.Role,
		Active: m.Active,
	}
}
