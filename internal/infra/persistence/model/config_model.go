package model

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigModel mirrors the 'configs' table of namespaced, versioned
// configuration documents. The version column backs optimistic concurrency
// control on updates.
type ConfigModel struct {
	Namespace string         `gorm:"type:varchar(100);primary_key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	Version   uint64         `gorm:"not null;default:1"`
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ConfigModel) TableName() string {
	return "configs"
}
