package services_test

import (
	"context"
	"testing"

	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTag(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "tags@example.org")
	other := testhelpers.CreateUser(t, db, "other@example.org")

	tag, err := services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: " Logic ", Color: "#3366ff"})
	require.NoError(t, err)
	assert.Equal(t, "Logic", tag.Name)
	assert.Equal(t, owner.ID, tag.OwnerID)

	_, err = services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "LOGIC"})
	assert.ErrorIs(t, err, services.ErrConflict)

	// names are scoped to their owner
	_, err = services.CreateTag(ctx, db, other.ID, services.TagInput{Name: "logic"})
	assert.NoError(t, err)

	_, err = services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "Colors", Color: "blue"})
	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "color")

	_, err = services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "  "})
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "name")

	tags, err := services.ListTags(ctx, db, owner.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Logic", tags[0].Name)
}

func TestUpdateTag(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "tags@example.org")
	other := testhelpers.CreateUser(t, db, "other@example.org")

	first, err := services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "first"})
	require.NoError(t, err)
	_, err = services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "second"})
	require.NoError(t, err)

	updated, err := services.UpdateTag(ctx, db, owner.ID, first.ID, services.TagInput{Name: "First", Color: "#abc"})
	require.NoError(t, err)
	assert.Equal(t, "First", updated.Name)
	assert.Equal(t, "#abc", updated.Color)

	_, err = services.UpdateTag(ctx, db, owner.ID, first.ID, services.TagInput{Name: "Second"})
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = services.UpdateTag(ctx, db, other.ID, first.ID, services.TagInput{Name: "stolen"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = services.UpdateTag(ctx, db, owner.ID, 9999, services.TagInput{Name: "missing"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAttachDetachTags(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "tags@example.org")
	other := testhelpers.CreateUser(t, db, "other@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Tagged", models.RevisionFull)

	tag, err := services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "logic"})
	require.NoError(t, err)
	foreign, err := services.CreateTag(ctx, db, other.ID, services.TagInput{Name: "foreign"})
	require.NoError(t, err)

	require.NoError(t, services.AttachTag(ctx, db, owner.ID, doc.ID, tag.ID))
	require.NoError(t, services.AttachTag(ctx, db, owner.ID, doc.ID, tag.ID))

	tags, err := services.DocumentTags(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, tag.ID, tags[0].ID)

	assert.ErrorIs(t, services.AttachTag(ctx, db, owner.ID, doc.ID, foreign.ID), services.ErrForbidden)
	assert.ErrorIs(t, services.AttachTag(ctx, db, other.ID, doc.ID, foreign.ID), services.ErrForbidden)

	_, err = services.DocumentTags(ctx, db, other.ID, doc.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	require.NoError(t, services.DetachTag(ctx, db, owner.ID, doc.ID, tag.ID))
	tags, err = services.DocumentTags(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDeleteTagDetaches(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "tags@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Tagged", models.RevisionFull)

	tag, err := services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "logic"})
	require.NoError(t, err)
	require.NoError(t, services.AttachTag(ctx, db, owner.ID, doc.ID, tag.ID))

	require.NoError(t, services.DeleteTag(ctx, db, owner.ID, tag.ID))

	tags, err := services.DocumentTags(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	var links int64
	require.NoError(t, db.Table("document_tags").Where("tag_id = ?", tag.ID).Count(&links).Error)
	assert.Zero(t, links)

	assert.ErrorIs(t, services.DeleteTag(ctx, db, owner.ID, tag.ID), services.ErrNotFound)

	// the name is free again once the tag is gone
	_, err = services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "logic"})
	assert.NoError(t, err)
}
