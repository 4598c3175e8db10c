package model

import (
	"time"

	"github.com/google/uuid"
)

// IdentityModel mirrors the 'identities' table. Each row is one way a user
// can authenticate: the email/password record or a linked external account.
// Two uniqueness constraints back the domain invariants: an external account
// maps to one local user, and a user holds one identity per provider.
type IdentityModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_identities_user_provider"`
	Provider   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_identities_user_provider;uniqueIndex:idx_identities_provider_id"`
	ProviderID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_provider_id"`
	SecretData string    `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}
