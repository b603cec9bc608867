package services

import (
	"context"
	"mime"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
)

// AssetInput carries a new file asset
type AssetInput struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Content  string `json:"content"`
}

// requiresBase64 reports whether content of this MIME type must be base64 encoded.
// Images are binary except SVG, which is text.
func requiresBase64(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") && mimeType != "image/svg+xml"
}

// Validate checks the asset input, applying the MIME/base64 construction rule
func (in AssetInput) Validate() error {
	mimeType := normalizeMime(in.MimeType)
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Filename, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.MimeType, validation.Required, validation.By(validMime)),
		validation.Field(&in.Content,
			validation.When(requiresBase64(mimeType), validation.Required, is.Base64)),
	))
}

func validMime(value interface{}) error {
	s, _ := value.(string)
	if _, _, err := mime.ParseMediaType(s); err != nil {
		return validation.NewError("validation_is_mime", "must be a valid MIME type")
	}
	return nil
}

// normalizeMime strips parameters and lower-cases the media type
func normalizeMime(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}

// CreateAsset stores a file asset under one of the actor's documents
func CreateAsset(ctx context.Context, db *gorm.DB, actorID, documentID uint64, input AssetInput) (*models.FileAsset, error) {
	input.Filename = strings.TrimSpace(input.Filename)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	asset := &models.FileAsset{
		Filename:   input.Filename,
		MimeType:   normalizeMime(input.MimeType),
		Content:    input.Content,
		DocumentID: documentID,
		OwnerID:    actorID,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadOwned(quiet(tx), actorID, documentID); err != nil {
			return err
		}
		return translate(tx.Create(asset).Error)
	})
	if err != nil {
		return nil, err
	}

	return asset, nil
}

// ListAssets lists the live assets of one of the actor's documents
func ListAssets(ctx context.Context, db *gorm.DB, actorID, documentID uint64) ([]models.FileAsset, error) {
	if _, err := loadOwned(quiet(db.WithContext(ctx)), actorID, documentID); err != nil {
		return nil, err
	}

	var assets []models.FileAsset
	if err := quiet(db.WithContext(ctx)).
		Where("document_id = ?", documentID).
		Order("created_at").Order("id").
		Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

// GetAsset returns one of the actor's live assets
func GetAsset(ctx context.Context, db *gorm.DB, actorID, id uint64) (*models.FileAsset, error) {
	var asset models.FileAsset
	if err := quiet(db.WithContext(ctx)).First(&asset, id).Error; err != nil {
		return nil, translate(err)
	}
	if asset.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return &asset, nil
}

// DeleteAsset soft-deletes one of the actor's assets and returns the delete timestamp
func DeleteAsset(ctx context.Context, db *gorm.DB, actorID, id uint64) (time.Time, error) {
	var deletedAt time.Time

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset, err := GetAsset(ctx, forUpdate(tx), actorID, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(asset).Error; err != nil {
			return err
		}

		var stored models.FileAsset
		if err := quiet(tx).Unscoped().Select("id", "deleted_at").First(&stored, id).Error; err != nil {
			return translate(err)
		}
		deletedAt = stored.DeletedAt.Time
		return nil
	})

	return deletedAt, err
}
