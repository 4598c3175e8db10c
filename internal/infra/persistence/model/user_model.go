package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name       string     `gorm:"type:varchar(100);not null;unique"`
	Email      string     `gorm:"type:varchar(255);not null;unique"`
	Roles      []string   `gorm:"type:jsonb;serializer:json"`
	TeamID     *uuid.UUID `gorm:"type:uuid;index"`
	DivisionID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Identities []IdentityModel `gorm:"foreignKey:UserID"`
	Sessions   []SessionModel  `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
