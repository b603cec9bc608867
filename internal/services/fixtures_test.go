package services_test

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/data"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFixtures(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)

	fx, err := services.ParseFixtures(data.SeedFixtures)
	require.NoError(t, err)

	result, err := services.Seed(ctx, db, fx, models.RevisionFull, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, services.SeedResult{Users: 2, Tags: 3, Documents: 3}, result)

	again, err := services.Seed(ctx, db, fx, models.RevisionFull, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, services.SeedResult{}, again)

	doc, err := services.ResolvePublished(ctx, db, "notes-on-the-analytical-engine", models.RevisionFull)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", doc.Owner.Name)
	assert.NotNil(t, doc.PublicUUID)

	var statuses []string
	require.NoError(t, db.Model(&models.Document{}).Order("id").Pluck("status", &statuses).Error)
	assert.Equal(t, []string{"PUBLISHED", "DRAFT", "UNDER_REVIEW"}, statuses)

	ada, err := services.GetUser(ctx, db, doc.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, "AL", ada.Initials)

	var links int64
	require.NoError(t, db.Table("document_tags").Count(&links).Error)
	assert.Equal(t, int64(4), links)
}

func TestSeedFixturesDraftOnly(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionDraftOnly)

	fx, err := services.ParseFixtures(data.SeedFixtures)
	require.NoError(t, err)

	result, err := services.Seed(ctx, db, fx, models.RevisionDraftOnly, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Documents)

	var statuses []string
	require.NoError(t, db.Model(&models.Document{}).Pluck("status", &statuses).Error)
	assert.Equal(t, []string{"DRAFT", "DRAFT", "DRAFT"}, statuses)
}

func TestParseFixturesRejectsGarbage(t *testing.T) {
	_, err := services.ParseFixtures([]byte("users: [unterminated"))
	assert.Error(t, err)
}

func TestSeedUnknownOwner(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)

	fx := &services.Fixtures{Tags: []services.TagFixture{{Owner: "ghost@example.org", Name: "x"}}}
	_, err := services.Seed(ctx, db, fx, models.RevisionFull, hclog.NewNullLogger())
	assert.ErrorIs(t, err, services.ErrNotFound)
}
