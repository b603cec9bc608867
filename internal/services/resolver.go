package services

import (
	"context"
	"errors"

	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/hints"
)

// identifierColumns is the fixed lookup precedence for public identifiers
var identifierColumns = []string{"public_uuid", "permalink_slug"}

// quiet returns a session that does not log its SQL
func quiet(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)})
}

// forUpdate applies a row lock on dialects that support SELECT ... FOR UPDATE
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// ResolvePublished resolves a public identifier to a published, live document.
// The identifier is tried as a public UUID first and as a permalink slug second;
// the first match wins outright.
func ResolvePublished(ctx context.Context, db *gorm.DB, identifier string, rev models.SchemaRevision) (*models.Document, error) {
	if identifier == "" || !rev.HasPublication() {
		return nil, ErrNotFound
	}

	for _, column := range identifierColumns {
		var doc models.Document
		err := quiet(db.WithContext(ctx)).
			Clauses(hints.Comment("select", "resolve_"+column)).
			Preload("Owner").
			Where(column+" = ? AND status = ?", identifier, models.StatusPublished).
			First(&doc).Error
		if err == nil {
			return &doc, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, ErrNotFound
}
