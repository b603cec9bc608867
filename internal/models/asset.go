package models

import (
	"time"

	"gorm.io/gorm"
)

// FileAsset is an attachment (image, data file, ...) belonging to a document
type FileAsset struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename   string         `gorm:"size:255;not null" json:"filename"`
	MimeType   string         `gorm:"size:255;not null" json:"mime_type"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	DocumentID uint64         `gorm:"not null;index" json:"document_id"`
	OwnerID    uint64         `gorm:"not null;index" json:"owner_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for FileAsset
func (FileAsset) TableName() string {
	return "file_assets"
}
