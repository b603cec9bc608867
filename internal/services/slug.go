package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"
	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
)

const maxSlugLength = 200

// Slugify turns a title into a lowercase, dash separated permalink slug
func Slugify(title string) string {
	kebab := strcase.ToKebab(strings.TrimSpace(gomoji.RemoveEmojis(title)))

	var b strings.Builder
	lastDash := true
	for _, r := range kebab {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugLength {
		slug = strings.Trim(string(runes[:maxSlugLength]), "-")
	}
	if slug == "" {
		slug = "document"
	}
	return slug
}

// uniqueSlug finds a free slug for title, suffixing -2, -3, ... on collision.
// Soft-deleted documents keep their slugs, so they are counted as taken.
func uniqueSlug(tx *gorm.DB, title string, excludeID uint64) (string, error) {
	base := Slugify(title)

	for i := 1; i <= 50; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		var count int64
		if err := tx.Unscoped().Model(&models.Document{}).
			Where("permalink_slug = ? AND id <> ?", candidate, excludeID).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}

	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}
