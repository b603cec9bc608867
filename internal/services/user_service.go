package services

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
)

// ProfileUpdate carries profile changes; nil fields are left untouched
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Initials *string `json:"initials"`
}

// Validate checks the profile changes
func (in ProfileUpdate) Validate() error {
	return asValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&in.Initials, validation.Length(0, 8)),
	))
}

// GetUser returns a live user
func GetUser(ctx context.Context, db *gorm.DB, id uint64) (*models.User, error) {
	var user models.User
	if err := quiet(db.WithContext(ctx)).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateProfile changes a user's display name and initials
func UpdateProfile(ctx context.Context, db *gorm.DB, id uint64, update ProfileUpdate) (*models.User, error) {
	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		update.Name = &trimmed
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var user *models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = GetUser(ctx, forUpdate(tx), id)
		if err != nil {
			return err
		}

		if update.Name != nil {
			user.Name = *update.Name
			if update.Initials == nil {
				user.Initials = Initials(user.Name)
			}
		}
		if update.Initials != nil {
			user.Initials = strings.TrimSpace(*update.Initials)
		}

		return tx.Model(user).Select("name", "initials", "updated_at").Updates(user).Error
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser soft-deletes an account. Its tokens stop authorising immediately.
func DeleteUser(ctx context.Context, db *gorm.DB, id uint64) (time.Time, error) {
	var deletedAt time.Time

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := GetUser(ctx, forUpdate(tx), id)
		if err != nil {
			return err
		}
		if err := tx.Delete(user).Error; err != nil {
			return err
		}

		var stored models.User
		if err := quiet(tx).Unscoped().Select("id", "deleted_at").First(&stored, id).Error; err != nil {
			return translate(err)
		}
		deletedAt = stored.DeletedAt.Time
		return nil
	})

	return deletedAt, err
}
