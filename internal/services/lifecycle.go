package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localnerve/aris-backend/internal/models"
)

// nextStatus holds the single forward edge out of each non-terminal status
var nextStatus = map[models.DocumentStatus]models.DocumentStatus{
	models.StatusDraft:       models.StatusUnderReview,
	models.StatusUnderReview: models.StatusPublished,
}

// CheckTransition validates moving doc to target under the given schema revision.
// Moving to the current status is accepted as a no-op.
func CheckTransition(doc *models.Document, target models.DocumentStatus, rev models.SchemaRevision) error {
	if doc == nil || doc.IsDeleted() {
		return ErrNotFound
	}

	if _, known := models.ParseStatus(string(target)); !known {
		return &TransitionError{From: doc.Status, To: target, Reason: "unknown status"}
	}
	if !rev.Allows(target) {
		return &TransitionError{
			From:   doc.Status,
			To:     target,
			Reason: fmt.Sprintf("status is not valid for schema revision %q", rev),
		}
	}

	if doc.Status == target {
		return nil
	}

	next, ok := nextStatus[doc.Status]
	if !ok {
		return &TransitionError{From: doc.Status, To: target, Reason: "published documents are final"}
	}
	if next != target {
		return &TransitionError{
			From:   doc.Status,
			To:     target,
			Reason: fmt.Sprintf("the only transition out of %s is to %s", doc.Status, next),
		}
	}

	return nil
}

// Transition moves doc to target, stamping publication metadata when the document
// enters PUBLISHED. The permalink slug needs a uniqueness check against storage and
// is assigned by the caller.
func Transition(doc *models.Document, target models.DocumentStatus, rev models.SchemaRevision, now time.Time) (*models.Document, error) {
	if err := CheckTransition(doc, target, rev); err != nil {
		return nil, err
	}

	if doc.Status == target {
		return doc, nil
	}

	doc.Status = target
	if target == models.StatusPublished && rev.HasPublication() {
		if doc.PublishedAt == nil {
			published := now.UTC()
			doc.PublishedAt = &published
		}
		if doc.PublicUUID == nil {
			id := uuid.NewString()
			doc.PublicUUID = &id
		}
	}

	return doc, nil
}

// DocumentEdits are the caller-supplied content changes of an update
type DocumentEdits struct {
	Title    *string
	Abstract *string
	Keywords *string
	Source   *string
}

// changes reports whether any edit differs from the stored document
func (e DocumentEdits) changes(doc *models.Document) bool {
	differs := func(v *string, current string) bool {
		return v != nil && *v != current
	}
	return differs(e.Title, doc.Title) ||
		differs(e.Abstract, doc.Abstract) ||
		differs(e.Keywords, doc.Keywords) ||
		differs(e.Source, doc.Source)
}

// CheckMutable rejects content edits the document's current state does not permit.
// DRAFT and UNDER_REVIEW documents are editable; PUBLISHED content is frozen.
func CheckMutable(doc *models.Document, edits DocumentEdits) error {
	if doc == nil || doc.IsDeleted() {
		return ErrNotFound
	}
	if doc.Status == models.StatusPublished && edits.changes(doc) {
		return &TransitionError{
			From:   doc.Status,
			To:     doc.Status,
			Reason: "published documents cannot be edited",
		}
	}
	return nil
}

// States lists the statuses a schema revision allows
func States(rev models.SchemaRevision) []models.DocumentStatus {
	return rev.Statuses()
}
