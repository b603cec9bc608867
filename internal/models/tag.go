package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag is a user-defined label that can be attached to documents
type Tag struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"size:255;not null;index:idx_tag_owner_name" json:"name"`
	Color     string         `gorm:"size:32;not null;default:''" json:"color"`
	OwnerID   uint64         `gorm:"not null;index:idx_tag_owner_name" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
