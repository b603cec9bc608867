package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the password of every user made by CreateUser
const Password = "correct-horse-battery"

// Issuer returns a token issuer with fixed test settings
func Issuer() *services.TokenIssuer {
	return services.NewTokenIssuer("test-secret", "aris-test", 15*time.Minute, 24*time.Hour)
}

// CreateUser inserts a live user. The hash uses the minimum bcrypt cost.
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:         "Test " + email,
		Initials:     "T",
		Email:        email,
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// AccessToken issues an access token for user
func AccessToken(t *testing.T, issuer *services.TokenIssuer, user *models.User) string {
	t.Helper()

	pair, err := issuer.Issue(user.ID)
	require.NoError(t, err)
	return pair.AccessToken
}

// Source builds minimal manuscript source with a heading
func Source(title string) string {
	return fmt.Sprintf(":rsm:\n# %s\n\nBody text.\n\n::\n", title)
}

// CreateDocument creates a DRAFT document owned by owner
func CreateDocument(t *testing.T, db *gorm.DB, owner *models.User, title string, rev models.SchemaRevision) *models.Document {
	t.Helper()

	doc, err := services.CreateDocument(context.Background(), db, owner.ID, services.DocumentInput{
		Title:  title,
		Source: Source(title),
	}, rev)
	require.NoError(t, err)
	return doc
}

// Advance moves doc one lifecycle step to status
func Advance(t *testing.T, db *gorm.DB, doc *models.Document, status models.DocumentStatus) *models.Document {
	t.Helper()

	target := string(status)
	updated, err := services.UpdateDocument(context.Background(), db, doc.OwnerID, doc.ID,
		services.DocumentUpdate{Status: &target}, models.RevisionFull)
	require.NoError(t, err)
	return updated
}

// Publish drives a DRAFT document through review to PUBLISHED
func Publish(t *testing.T, db *gorm.DB, doc *models.Document) *models.Document {
	t.Helper()

	doc = Advance(t, db, doc, models.StatusUnderReview)
	return Advance(t, db, doc, models.StatusPublished)
}
