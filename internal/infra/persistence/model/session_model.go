package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionModel mirrors the 'sessions' table. Rows are never deleted;
// revocation sets revoked_at and clears the refresh token hash, so the row
// remains as an audit trail.
type SessionModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	AppID            *uuid.UUID `gorm:"type:uuid;index"`
	RefreshTokenHash string     `gorm:"type:varchar(255);index"`
	Scopes           []string   `gorm:"type:jsonb;serializer:json"`
	IP               string     `gorm:"type:varchar(45)"`
	CreatedAt        time.Time
	RefreshedAt      time.Time
	ExpiresAt        *time.Time
	RevokedAt        *time.Time
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}
