package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// maxTitleLength is the title limit in characters, matching the size:255 column
const maxTitleLength = 255

// DocumentInput carries the fields of a new document
type DocumentInput struct {
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Keywords []string `json:"keywords"`
	Source   string   `json:"source"`
}

// Validate checks the input before anything is written
func (in DocumentInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLength)),
		validation.Field(&in.Source, validation.By(rsmSource)),
	))
}

// DocumentUpdate carries the caller-supplied changes of an update.
// Nil fields are left untouched.
type DocumentUpdate struct {
	DocumentEdits
	Status  *string
	Version *uint64
}

// ListFilter narrows a document listing. Documents carrying any of TagIDs match.
type ListFilter struct {
	Status string
	TagIDs []uint64
}

// rsmSource is the ozzo rule requiring the manuscript marker
func rsmSource(value interface{}) error {
	s, _ := value.(string)
	if !HasRSMMarker(s) {
		return errors.New("must start with the " + RSMMarker + " manuscript marker")
	}
	return nil
}

// NormalizeKeywords flattens comma-separated keyword values into the stored
// comma-separated form, dropping blanks and case-insensitive duplicates.
func NormalizeKeywords(values []string) string {
	seen := make(map[string]struct{})
	keywords := make([]string, 0, len(values))

	for _, value := range values {
		for _, keyword := range strings.Split(value, ",") {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			key := strings.ToLower(keyword)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keywords = append(keywords, keyword)
		}
	}

	return strings.Join(keywords, ",")
}

// SplitKeywords returns the stored keywords as a slice
func SplitKeywords(keywords string) []string {
	if keywords == "" {
		return []string{}
	}
	return strings.Split(keywords, ",")
}

// createDocument inserts doc, leaving out the retired columns under the draft-only revision
func createDocument(tx *gorm.DB, doc *models.Document, rev models.SchemaRevision) error {
	if !rev.HasPublication() {
		tx = tx.Omit(models.PublicationColumns...)
	}
	return translate(tx.Create(doc).Error)
}

// CreateDocument creates a new DRAFT document owned by ownerID
func CreateDocument(ctx context.Context, db *gorm.DB, ownerID uint64, input DocumentInput, rev models.SchemaRevision) (*models.Document, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:    strings.TrimSpace(input.Title),
		Abstract: input.Abstract,
		Keywords: NormalizeKeywords(input.Keywords),
		Source:   input.Source,
		Status:   models.StatusDraft,
		OwnerID:  ownerID,
	}

	if err := createDocument(db.WithContext(ctx), doc, rev); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the owner's live documents, most recently updated first
func ListDocuments(ctx context.Context, db *gorm.DB, ownerID uint64, filter ListFilter) ([]models.Document, error) {
	query := quiet(db.WithContext(ctx)).
		Clauses(hints.Comment("select", "list_documents")).
		Preload("Tags").
		Where("documents.owner_id = ?", ownerID)

	if filter.Status != "" {
		status, ok := models.ParseStatus(filter.Status)
		if !ok {
			return nil, invalid("status", "unknown status "+filter.Status)
		}
		query = query.Where("documents.status = ?", status)
	}
	if len(filter.TagIDs) > 0 {
		tagged := quiet(db.WithContext(ctx)).Table("document_tags").Select("document_id").Where("tag_id IN ?", filter.TagIDs)
		query = query.Where("documents.id IN (?)", tagged)
	}

	var docs []models.Document
	if err := query.Order("documents.updated_at DESC").Order("documents.id DESC").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// loadOwned loads a live document and checks that actorID owns it
func loadOwned(tx *gorm.DB, actorID, id uint64) (*models.Document, error) {
	var doc models.Document
	if err := tx.First(&doc, id).Error; err != nil {
		return nil, translate(err)
	}
	if doc.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return &doc, nil
}

// GetDocument returns one of the actor's live documents
func GetDocument(ctx context.Context, db *gorm.DB, actorID, id uint64) (*models.Document, error) {
	doc, err := loadOwned(quiet(db.WithContext(ctx)).Preload("Tags"), actorID, id)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// updateColumns lists the columns an update writes under the revision
func updateColumns(rev models.SchemaRevision) []string {
	columns := []string{"title", "abstract", "keywords", "source", "content", "status", "version", "updated_at"}
	if rev.HasPublication() {
		columns = append(columns, "published_at", "public_uuid", "permalink_slug")
	}
	return columns
}

// UpdateDocument edits and/or transitions a document in a single transaction.
// A missing or soft-deleted document yields ErrNotFound and nothing is written.
func UpdateDocument(ctx context.Context, db *gorm.DB, actorID, id uint64, update DocumentUpdate, rev models.SchemaRevision) (*models.Document, error) {
	var updated *models.Document

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := loadOwned(forUpdate(quiet(tx)), actorID, id)
		if err != nil {
			return err
		}

		if update.Version != nil && *update.Version != doc.Version {
			return ErrVersion
		}

		if update.Title != nil {
			trimmed := strings.TrimSpace(*update.Title)
			if utf8.RuneCountInString(trimmed) > maxTitleLength {
				return invalid("title", fmt.Sprintf("the length must be no more than %d", maxTitleLength))
			}
			update.Title = &trimmed
		}
		if update.Source != nil {
			if err := rsmSource(*update.Source); err != nil {
				return invalid("source", err.Error())
			}
		}
		if update.Keywords != nil {
			normalized := NormalizeKeywords([]string{*update.Keywords})
			update.Keywords = &normalized
		}

		if err := CheckMutable(doc, update.DocumentEdits); err != nil {
			return err
		}

		applyEdits(doc, update.DocumentEdits)

		if update.Status != nil {
			target := models.DocumentStatus(*update.Status)
			wasPublished := doc.Status == models.StatusPublished
			if _, err := Transition(doc, target, rev, tx.NowFunc()); err != nil {
				return err
			}
			if !wasPublished && doc.Status == models.StatusPublished && doc.PermalinkSlug == nil {
				slug, err := uniqueSlug(tx, ExtractTitle(doc), doc.ID)
				if err != nil {
					return err
				}
				doc.PermalinkSlug = &slug
			}
		}

		previous := doc.Version
		doc.Version = previous + 1
		doc.UpdatedAt = tx.NowFunc()

		result := tx.Model(doc).
			Where("version = ?", previous).
			Select(updateColumns(rev)).
			Updates(doc)
		if result.Error != nil {
			return translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrVersion
		}

		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// applyEdits copies edits onto doc, dropping the render cache when the source changes
func applyEdits(doc *models.Document, edits DocumentEdits) {
	if edits.Title != nil {
		doc.Title = *edits.Title
	}
	if edits.Abstract != nil {
		doc.Abstract = *edits.Abstract
	}
	if edits.Keywords != nil {
		doc.Keywords = *edits.Keywords
	}
	if edits.Source != nil && *edits.Source != doc.Source {
		doc.Source = *edits.Source
		doc.Content = ""
	}
}

// SoftDeleteDocument stamps the document's delete timestamp. The first delete wins:
// deleting an already deleted document returns the stored timestamp unchanged.
func SoftDeleteDocument(ctx context.Context, db *gorm.DB, actorID, id uint64) (time.Time, error) {
	var deletedAt time.Time

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := forUpdate(quiet(tx).Unscoped()).First(&doc, id).Error; err != nil {
			return translate(err)
		}
		if doc.OwnerID != actorID {
			return ErrForbidden
		}

		if !doc.DeletedAt.Valid {
			if err := tx.Unscoped().Model(&models.Document{}).
				Where("id = ? AND deleted_at IS NULL", id).
				Update("deleted_at", tx.NowFunc()).Error; err != nil {
				return err
			}
		}

		var stored models.Document
		if err := quiet(tx).Unscoped().Select("id", "deleted_at").First(&stored, id).Error; err != nil {
			return translate(err)
		}
		deletedAt = stored.DeletedAt.Time
		return nil
	})

	return deletedAt, err
}

// DuplicateDocument copies one of the actor's documents into a new DRAFT with the same tags
func DuplicateDocument(ctx context.Context, db *gorm.DB, actorID, id uint64, rev models.SchemaRevision) (*models.Document, error) {
	var dup *models.Document

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		original, err := loadOwned(quiet(tx).Preload("Tags"), actorID, id)
		if err != nil {
			return err
		}

		title := strings.TrimSpace(ExtractTitle(original) + " (copy)")
		if runes := []rune(title); len(runes) > maxTitleLength {
			title = string(runes[:maxTitleLength])
		}

		dup = &models.Document{
			Title:    title,
			Abstract: original.Abstract,
			Keywords: original.Keywords,
			Source:   original.Source,
			Content:  original.Content,
			Settings: original.Settings,
			Status:   models.StatusDraft,
			OwnerID:  actorID,
		}
		if err := createDocument(tx, dup, rev); err != nil {
			return err
		}

		if len(original.Tags) > 0 {
			if err := tx.Model(dup).Association("Tags").Append(original.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dup, nil
}

// UpdateDocumentSettings replaces the display settings of a document.
// Settings are presentation only and may change in any lifecycle state.
func UpdateDocumentSettings(ctx context.Context, db *gorm.DB, actorID, id uint64, raw json.RawMessage) (*models.Document, error) {
	var settings map[string]interface{}
	if err := json.Unmarshal(raw, &settings); err != nil || settings == nil {
		return nil, invalid("settings", "must be a JSON object")
	}

	var doc *models.Document
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = loadOwned(forUpdate(quiet(tx)), actorID, id)
		if err != nil {
			return err
		}

		doc.Settings = models.NewJSON(raw)
		return tx.Model(doc).UpdateColumn("settings", doc.Settings).Error
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}
