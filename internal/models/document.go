package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is a single manuscript written in RSM
type Document struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string         `gorm:"size:255;not null;default:''" json:"title"`
	Abstract      string         `gorm:"type:text" json:"abstract"`
	Keywords      string         `gorm:"size:1024" json:"keywords"`
	Status        DocumentStatus `gorm:"not null;default:'DRAFT';index" json:"status"`
	OwnerID       uint64         `gorm:"not null;index" json:"owner_id"`
	Owner         *User          `gorm:"foreignKey:OwnerID" json:"-"`
	Source        string         `gorm:"type:text;not null" json:"source"`
	Content       string         `gorm:"type:text" json:"-"`
	Version       uint64         `gorm:"not null;default:0" json:"version"`
	DOI           *string        `gorm:"column:doi;size:255;uniqueIndex" json:"doi,omitempty"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	PublicUUID    *string        `gorm:"size:36;uniqueIndex" json:"public_uuid,omitempty"`
	PermalinkSlug *string        `gorm:"size:255;uniqueIndex" json:"permalink_slug,omitempty"`
	Settings      JSON           `json:"settings,omitempty"`
	Tags          []Tag          `gorm:"many2many:document_tags;" json:"tags,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicationColumns are the columns retired by the draft-only schema revision
var PublicationColumns = []string{"doi", "published_at", "public_uuid", "permalink_slug"}

// TableName overrides the table name for Document
func (Document) TableName() string {
	return "documents"
}

// IsDeleted reports whether the document carries a delete timestamp
func (d *Document) IsDeleted() bool {
	return d.DeletedAt.Valid
}
