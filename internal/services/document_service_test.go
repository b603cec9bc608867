package services_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateDocumentValidation(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "create@example.org")

	_, err := services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{Source: "# no marker"}, models.RevisionFull)
	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "source")

	_, err = services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{
		Title:  strings.Repeat("x", 256),
		Source: testhelpers.Source("Fine"),
	}, models.RevisionFull)
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "title")

	var count int64
	require.NoError(t, db.Model(&models.Document{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTitleLengthCountsCharacters(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "accents@example.org")

	accented := strings.Repeat("é", 200)
	doc, err := services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{
		Title:  accented,
		Source: testhelpers.Source("Accents"),
	}, models.RevisionFull)
	require.NoError(t, err)
	assert.Equal(t, accented, doc.Title)

	retitled := strings.Repeat("ü", 255)
	updated, err := services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Title: strPtr(retitled)},
	}, models.RevisionFull)
	require.NoError(t, err)
	assert.Equal(t, retitled, updated.Title)

	tooLong := strings.Repeat("é", 256)
	var validationErr *services.ValidationError
	_, err = services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{
		Title:  tooLong,
		Source: testhelpers.Source("Accents"),
	}, models.RevisionFull)
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "title")

	_, err = services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Title: strPtr(tooLong)},
	}, models.RevisionFull)
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "title")
}

func TestDuplicateTruncatesLongTitles(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "longdup@example.org")

	original, err := services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{
		Title:  strings.Repeat("ö", 255),
		Source: testhelpers.Source("x"),
	}, models.RevisionFull)
	require.NoError(t, err)

	dup, err := services.DuplicateDocument(ctx, db, owner.ID, original.ID, models.RevisionFull)
	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(dup.Title), 255)
	assert.True(t, utf8.ValidString(dup.Title))
}

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "create@example.org")

	doc, err := services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{
		Title:    "  Spaced  ",
		Keywords: []string{"logic, Sets", "sets", " ", "proof"},
		Source:   "\n  " + testhelpers.Source("Spaced"),
	}, models.RevisionFull)
	require.NoError(t, err)

	assert.NotZero(t, doc.ID)
	assert.Equal(t, "Spaced", doc.Title)
	assert.Equal(t, "logic,Sets,proof", doc.Keywords)
	assert.Equal(t, models.StatusDraft, doc.Status)
	assert.Equal(t, owner.ID, doc.OwnerID)
	assert.Nil(t, doc.PublicUUID)
	assert.Nil(t, doc.PermalinkSlug)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "list@example.org")
	other := testhelpers.CreateUser(t, db, "other@example.org")

	first := testhelpers.CreateDocument(t, db, owner, "First", models.RevisionFull)
	second := testhelpers.CreateDocument(t, db, owner, "Second", models.RevisionFull)
	deleted := testhelpers.CreateDocument(t, db, owner, "Deleted", models.RevisionFull)
	testhelpers.CreateDocument(t, db, other, "Not mine", models.RevisionFull)

	_, err := services.SoftDeleteDocument(ctx, db, owner.ID, deleted.ID)
	require.NoError(t, err)
	testhelpers.Advance(t, db, first, models.StatusUnderReview)

	docs, err := services.ListDocuments(ctx, db, owner.ID, services.ListFilter{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first.ID, docs[0].ID, "most recently updated first")
	assert.Equal(t, second.ID, docs[1].ID)

	docs, err = services.ListDocuments(ctx, db, owner.ID, services.ListFilter{Status: "DRAFT"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, second.ID, docs[0].ID)

	tag, err := services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "logic"})
	require.NoError(t, err)
	require.NoError(t, services.AttachTag(ctx, db, owner.ID, second.ID, tag.ID))

	docs, err = services.ListDocuments(ctx, db, owner.ID, services.ListFilter{TagIDs: []uint64{tag.ID}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, second.ID, docs[0].ID)
	require.Len(t, docs[0].Tags, 1)
	assert.Equal(t, "logic", docs[0].Tags[0].Name)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = services.ListDocuments(cancelled, db, owner.ID, services.ListFilter{TagIDs: []uint64{tag.ID}})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = services.ListDocuments(ctx, db, owner.ID, services.ListFilter{Status: "ARCHIVED"})
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestGetDocumentOwnership(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "owner@example.org")
	intruder := testhelpers.CreateUser(t, db, "intruder@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Private", models.RevisionFull)

	got, err := services.GetDocument(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)

	_, err = services.GetDocument(ctx, db, intruder.ID, doc.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = services.GetDocument(ctx, db, owner.ID, doc.ID+100)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestUpdateDocumentVersioning(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "version@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Versioned", models.RevisionFull)
	require.Zero(t, doc.Version)

	stale := uint64(0)
	updated, err := services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Abstract: strPtr("First abstract")},
		Version:       &stale,
	}, models.RevisionFull)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), updated.Version)

	_, err = services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Abstract: strPtr("Lost update")},
		Version:       &stale,
	}, models.RevisionFull)
	assert.ErrorIs(t, err, services.ErrVersion)

	stored, err := services.GetDocument(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "First abstract", stored.Abstract)
	assert.Equal(t, uint64(1), stored.Version)
}

func TestUpdateDocumentEdits(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "edits@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Edited", models.RevisionFull)
	require.NoError(t, db.Model(doc).UpdateColumn("content", "<p>cached</p>").Error)

	updated, err := services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{
			Keywords: strPtr("a, b, A"),
			Source:   strPtr(testhelpers.Source("Rewritten")),
		},
	}, models.RevisionFull)
	require.NoError(t, err)
	assert.Equal(t, "a,b", updated.Keywords)

	var stored models.Document
	require.NoError(t, db.First(&stored, doc.ID).Error)
	assert.Empty(t, stored.Content, "a source change drops the render cache")
	assert.Equal(t, testhelpers.Source("Rewritten"), stored.Source)

	_, err = services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Source: strPtr("plain text")},
	}, models.RevisionFull)
	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "source")
}

func TestUpdateDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "lifecycle@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Lifecycle", models.RevisionFull)

	_, err := services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		Status: strPtr(string(models.StatusPublished)),
	}, models.RevisionFull)
	var transitionErr *services.TransitionError
	require.ErrorAs(t, err, &transitionErr)

	published := testhelpers.Publish(t, db, doc)
	assert.Equal(t, models.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	require.NotNil(t, published.PermalinkSlug)
	assert.Equal(t, "lifecycle", *published.PermalinkSlug)

	_, err = services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Title: strPtr("Retitled")},
	}, models.RevisionFull)
	require.ErrorAs(t, err, &transitionErr)

	settings, err := services.UpdateDocumentSettings(ctx, db, owner.ID, doc.ID, json.RawMessage(`{"theme":"dark"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(settings.Settings.JSON))
}

func TestPublishAssignsUniqueSlugs(t *testing.T) {
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "slugs@example.org")

	first := testhelpers.Publish(t, db, testhelpers.CreateDocument(t, db, owner, "Same Title", models.RevisionFull))
	second := testhelpers.Publish(t, db, testhelpers.CreateDocument(t, db, owner, "Same Title", models.RevisionFull))

	assert.Equal(t, "same-title", *first.PermalinkSlug)
	assert.Equal(t, "same-title-2", *second.PermalinkSlug)
	assert.NotEqual(t, *first.PublicUUID, *second.PublicUUID)
}

func TestSoftDeleteFirstDeleteWins(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "delete@example.org")
	intruder := testhelpers.CreateUser(t, db, "intruder@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Doomed", models.RevisionFull)

	_, err := services.SoftDeleteDocument(ctx, db, intruder.ID, doc.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	first, err := services.SoftDeleteDocument(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.False(t, first.IsZero())

	again, err := services.SoftDeleteDocument(ctx, db, owner.ID, doc.ID)
	require.NoError(t, err)
	assert.True(t, first.Equal(again), "a second delete keeps the original timestamp")

	_, err = services.GetDocument(ctx, db, owner.ID, doc.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		Status: strPtr(string(models.StatusUnderReview)),
	}, models.RevisionFull)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = services.SoftDeleteDocument(ctx, db, owner.ID, doc.ID+100)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestDuplicateDocument(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "dup@example.org")

	original, err := services.CreateDocument(ctx, db, owner.ID, services.DocumentInput{
		Abstract: "Abstract",
		Source:   testhelpers.Source("Parsed Title"),
	}, models.RevisionFull)
	require.NoError(t, err)
	tag, err := services.CreateTag(ctx, db, owner.ID, services.TagInput{Name: "copyme", Color: "#fff"})
	require.NoError(t, err)
	require.NoError(t, services.AttachTag(ctx, db, owner.ID, original.ID, tag.ID))
	testhelpers.Publish(t, db, original)

	dup, err := services.DuplicateDocument(ctx, db, owner.ID, original.ID, models.RevisionFull)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, dup.ID)
	assert.Equal(t, "Parsed Title (copy)", dup.Title)
	assert.Equal(t, models.StatusDraft, dup.Status)
	assert.Nil(t, dup.PublicUUID)
	assert.Equal(t, "Abstract", dup.Abstract)

	tags, err := services.DocumentTags(ctx, db, owner.ID, dup.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, tag.ID, tags[0].ID)
}

func TestUpdateDocumentSettingsRejectsNonObjects(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionFull)
	owner := testhelpers.CreateUser(t, db, "settings@example.org")
	doc := testhelpers.CreateDocument(t, db, owner, "Settings", models.RevisionFull)

	for _, raw := range []string{`[1,2]`, `"dark"`, `null`, `{`} {
		_, err := services.UpdateDocumentSettings(ctx, db, owner.ID, doc.ID, json.RawMessage(raw))
		var validationErr *services.ValidationError
		assert.ErrorAs(t, err, &validationErr, raw)
	}
}

func TestDraftOnlyRevision(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupDB(t, models.RevisionDraftOnly)
	owner := testhelpers.CreateUser(t, db, "draftonly@example.org")

	doc := testhelpers.CreateDocument(t, db, owner, "Only Drafts", models.RevisionDraftOnly)

	updated, err := services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{Abstract: strPtr("still editable")},
	}, models.RevisionDraftOnly)
	require.NoError(t, err)
	assert.Equal(t, "still editable", updated.Abstract)

	_, err = services.UpdateDocument(ctx, db, owner.ID, doc.ID, services.DocumentUpdate{
		Status: strPtr(string(models.StatusUnderReview)),
	}, models.RevisionDraftOnly)
	var transitionErr *services.TransitionError
	assert.ErrorAs(t, err, &transitionErr)

	dup, err := services.DuplicateDocument(ctx, db, owner.ID, doc.ID, models.RevisionDraftOnly)
	require.NoError(t, err)
	assert.Equal(t, "Only Drafts (copy)", dup.Title)
}

func TestNormalizeKeywords(t *testing.T) {
	assert.Equal(t, "", services.NormalizeKeywords(nil))
	assert.Equal(t, "x,y", services.NormalizeKeywords([]string{" x ,y", "X", ",,"}))
	assert.Equal(t, []string{}, services.SplitKeywords(""))
	assert.Equal(t, []string{"x", "y"}, services.SplitKeywords("x,y"))
}
