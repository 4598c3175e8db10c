package model

import (
	"time"

	"github.com/google/uuid"
)

// AppModel mirrors the 'apps' table of registered third-party client
// applications. Only the SHA-256 hash of the client secret is stored.
type AppModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name             string    `gorm:"type:varchar(100);not null"`
	ClientID         string    `gorm:"type:varchar(255);not null;unique"`
	ClientSecretHash string    `gorm:"type:varchar(255);not null"`
	RedirectURIs     []string  `gorm:"type:jsonb;serializer:json"`
	Scopes           []string  `gorm:"type:jsonb;serializer:json"`
	Enabled          bool      `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (AppModel) TableName() string {
	return "apps"
}
