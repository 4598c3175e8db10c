package model

import (
	"time"

	"github.com/google/uuid"
)

// OAuthProviderModel mirrors the 'oauth_providers' table of upstream
// identity provider configurations. Rows are admin-managed.
type OAuthProviderModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Name                  string    `gorm:"type:varchar(100);not null;unique"`
	ClientID              string    `gorm:"type:varchar(255);not null"`
	ClientSecret          string    `gorm:"type:text;not null"`
	AuthorizeURL          string    `gorm:"type:text;not null"`
	TokenURL              string    `gorm:"type:text;not null"`
	InfoURL               string    `gorm:"type:text;not null"`
	InfoIDProperty        string    `gorm:"type:varchar(255)"`
	ImageSrc              string    `gorm:"type:text"`
	IsRegistrationEnabled bool      `gorm:"not null;default:false"`
	IsEnabled             bool      `gorm:"not null;default:true"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TableName explicitly sets the table name for GORM.
func (OAuthProviderModel) TableName() string {
	return "oauth_providers"
}
