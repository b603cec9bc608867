package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// TagInput carries a tag's name and color
type TagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate checks the tag input
func (in TagInput) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Color, validation.Match(colorPattern).Error("must be a hex color such as #aabbcc")),
	))
}

// nameTaken reports whether the owner already has a live tag called name
func nameTaken(tx *gorm.DB, ownerID uint64, name string, excludeID uint64) (bool, error) {
	var count int64
	err := quiet(tx).Model(&models.Tag{}).
		Where("owner_id = ? AND LOWER(name) = ? AND id <> ?", ownerID, strings.ToLower(name), excludeID).
		Count(&count).Error
	return count > 0, err
}

// CreateTag creates a tag owned by ownerID. Names are unique per owner among live tags.
func CreateTag(ctx context.Context, db *gorm.DB, ownerID uint64, input TagInput) (*models.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	tag := &models.Tag{Name: input.Name, Color: input.Color, OwnerID: ownerID}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, ownerID, input.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: tag %q already exists", ErrConflict, input.Name)
		}
		return translate(tx.Create(tag).Error)
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

// ListTags returns the owner's live tags by name
func ListTags(ctx context.Context, db *gorm.DB, ownerID uint64) ([]models.Tag, error) {
	var tags []models.Tag
	if err := quiet(db.WithContext(ctx)).Where("owner_id = ?", ownerID).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func loadOwnedTag(tx *gorm.DB, actorID, id uint64) (*models.Tag, error) {
	var tag models.Tag
	if err := quiet(tx).First(&tag, id).Error; err != nil {
		return nil, translate(err)
	}
	if tag.OwnerID != actorID {
		return nil, ErrForbidden
	}
	return &tag, nil
}

// UpdateTag renames or recolors one of the actor's tags
func UpdateTag(ctx context.Context, db *gorm.DB, actorID, id uint64, input TagInput) (*models.Tag, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var tag *models.Tag
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if tag, err = loadOwnedTag(forUpdate(tx), actorID, id); err != nil {
			return err
		}

		taken, err := nameTaken(tx, actorID, input.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: tag %q already exists", ErrConflict, input.Name)
		}

		tag.Name = input.Name
		tag.Color = input.Color
		return tx.Model(tag).Select("name", "color", "updated_at").Updates(tag).Error
	})
	if err != nil {
		return nil, err
	}

	return tag, nil
}

// DeleteTag soft-deletes one of the actor's tags and detaches it from every document
func DeleteTag(ctx context.Context, db *gorm.DB, actorID, id uint64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tag, err := loadOwnedTag(forUpdate(tx), actorID, id)
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM document_tags WHERE tag_id = ?", tag.ID).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
}

// AttachTag adds one of the actor's tags to one of the actor's documents. Attaching twice is a no-op.
func AttachTag(ctx context.Context, db *gorm.DB, actorID, documentID, tagID uint64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := loadOwned(quiet(tx), actorID, documentID)
		if err != nil {
			return err
		}
		tag, err := loadOwnedTag(tx, actorID, tagID)
		if err != nil {
			return err
		}
		return tx.Model(doc).Association("Tags").Append(tag)
	})
}

// DetachTag removes a tag from one of the actor's documents
func DetachTag(ctx context.Context, db *gorm.DB, actorID, documentID, tagID uint64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := loadOwned(quiet(tx), actorID, documentID)
		if err != nil {
			return err
		}
		tag, err := loadOwnedTag(tx, actorID, tagID)
		if err != nil {
			return err
		}
		return tx.Model(doc).Association("Tags").Delete(tag)
	})
}

// DocumentTags lists the live tags attached to one of the actor's documents
func DocumentTags(ctx context.Context, db *gorm.DB, actorID, documentID uint64) ([]models.Tag, error) {
	doc, err := loadOwned(quiet(db.WithContext(ctx)), actorID, documentID)
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := quiet(db.WithContext(ctx)).Model(doc).Order("name").Association("Tags").Find(&tags); err != nil {
		return nil, err
	}
	return tags, nil
}
