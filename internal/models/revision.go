package models

// SchemaRevision names the document schema in force. The full revision carries the
// whole publication lifecycle; the draft-only revision retires every status but DRAFT
// together with the publication columns.
type SchemaRevision string

const (
	RevisionFull      SchemaRevision = "full"
	RevisionDraftOnly SchemaRevision = "draft-only"
)

// Statuses returns the status enumeration valid under the revision
func (r SchemaRevision) Statuses() []DocumentStatus {
	if r == RevisionDraftOnly {
		return []DocumentStatus{StatusDraft}
	}
	return AllStatuses
}

// Allows reports whether status is part of the revision's enumeration
func (r SchemaRevision) Allows(status DocumentStatus) bool {
	for _, s := range r.Statuses() {
		if s == status {
			return true
		}
	}
	return false
}

// HasPublication reports whether the publication columns exist under the revision
func (r SchemaRevision) HasPublication() bool {
	return r != RevisionDraftOnly
}
