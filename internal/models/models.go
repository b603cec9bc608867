package models

import "time"

// SchemaMigration records an applied schema migration step
type SchemaMigration struct {
	ID          string    `gorm:"primaryKey;size:128"`
	AppliedAt   time.Time `gorm:"not null"`
	Destructive bool      `gorm:"not null;default:false"`
}

// TableName overrides the table name for SchemaMigration
func (SchemaMigration) TableName() string {
	return "schema_migrations"
}

// All returns every model managed by the base schema, parents first
func All() []interface{} {
	return []interface{}{
		&User{},
		&Document{},
		&Tag{},
		&FileAsset{},
	}
}
