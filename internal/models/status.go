package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DocumentStatus is the lifecycle state of a document
type DocumentStatus string

const (
	StatusDraft       DocumentStatus = "DRAFT"
	StatusUnderReview DocumentStatus = "UNDER_REVIEW"
	StatusPublished   DocumentStatus = "PUBLISHED"
)

// StatusEnumName is the postgres enum type backing the status column
const StatusEnumName = "document_status"

// AllStatuses lists every status known to the full lifecycle, in lifecycle order
var AllStatuses = []DocumentStatus{StatusDraft, StatusUnderReview, StatusPublished}

// ParseStatus returns the status named by s, or false if s names no known status
func ParseStatus(s string) (DocumentStatus, bool) {
	for _, status := range AllStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// GormDBDataType maps the status onto the native enum for postgres and a plain string column elsewhere.
func (DocumentStatus) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return StatusEnumName
	case "sqlserver", "mssql":
		return "NVARCHAR(32)"
	}
	return "VARCHAR(32)"
}
