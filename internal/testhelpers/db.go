// Package testhelpers holds shared fixtures for package tests and the container dev environment
package testhelpers

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/database"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens an empty in-memory SQLite database with the production gorm configuration.
// The pool is pinned to one connection so every query sees the same memory database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// SetupDB opens an in-memory database migrated to the schema of rev
func SetupDB(t *testing.T, rev models.SchemaRevision) *gorm.DB {
	t.Helper()

	db := OpenDB(t)
	require.NoError(t, database.Migrate(db, database.TargetFor(rev), hclog.NewNullLogger()))
	return db
}
