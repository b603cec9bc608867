package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is a declarative data set of users, tags and documents
type Fixtures struct {
	Users     []UserFixture     `yaml:"users"`
	Tags      []TagFixture      `yaml:"tags"`
	Documents []DocumentFixture `yaml:"documents"`
}

// UserFixture declares an account
type UserFixture struct {
	Name     string `yaml:"name"`
	Initials string `yaml:"initials"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// TagFixture declares a tag owned by the user with the Owner email
type TagFixture struct {
	Owner string `yaml:"owner"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// DocumentFixture declares a document, the status it is driven to and its tags
type DocumentFixture struct {
	Owner    string   `yaml:"owner"`
	Title    string   `yaml:"title"`
	Abstract string   `yaml:"abstract"`
	Keywords []string `yaml:"keywords"`
	Status   string   `yaml:"status"`
	Tags     []string `yaml:"tags"`
	Source   string   `yaml:"source"`
}

// SeedResult counts the records a Seed call created
type SeedResult struct {
	Users     int
	Tags      int
	Documents int
}

// ParseFixtures decodes a YAML fixture set
func ParseFixtures(raw []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &fx, nil
}

// Seed creates the fixtures that do not exist yet. Documents are driven through the
// lifecycle one edge at a time; statuses the revision does not allow stop the walk early.
func Seed(ctx context.Context, db *gorm.DB, fx *Fixtures, rev models.SchemaRevision, log hclog.Logger) (SeedResult, error) {
	var result SeedResult
	log = log.Named("seed")

	owners := make(map[string]*models.User)
	for _, uf := range fx.Users {
		user, created, err := seedUser(ctx, db, uf)
		if err != nil {
			return result, fmt.Errorf("user %s: %w", uf.Email, err)
		}
		if created {
			result.Users++
		}
		owners[normalizeEmail(uf.Email)] = user
	}

	owner := func(email string) (*models.User, error) {
		if user, ok := owners[normalizeEmail(email)]; ok {
			return user, nil
		}
		var user models.User
		if err := quiet(db.WithContext(ctx)).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
			return nil, fmt.Errorf("owner %s: %w", email, translate(err))
		}
		owners[normalizeEmail(email)] = &user
		return &user, nil
	}

	tags := make(map[string]*models.Tag)
	tagKey := func(ownerID uint64, name string) string { return fmt.Sprintf("%d/%s", ownerID, name) }

	for _, tf := range fx.Tags {
		user, err := owner(tf.Owner)
		if err != nil {
			return result, err
		}

		var tag models.Tag
		err = quiet(db.WithContext(ctx)).Where("owner_id = ? AND name = ?", user.ID, tf.Name).First(&tag).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, err := CreateTag(ctx, db, user.ID, TagInput{Name: tf.Name, Color: tf.Color})
			if err != nil {
				return result, fmt.Errorf("tag %s: %w", tf.Name, err)
			}
			tag = *created
			result.Tags++
		default:
			return result, err
		}
		tags[tagKey(user.ID, tag.Name)] = &tag
	}

	for _, df := range fx.Documents {
		user, err := owner(df.Owner)
		if err != nil {
			return result, err
		}

		title := ExtractTitle(&models.Document{Title: df.Title, Source: df.Source})
		exists, err := documentExists(ctx, db, user.ID, title)
		if err != nil {
			return result, err
		}
		if exists {
			log.Debug("document exists", "title", title)
			continue
		}

		doc, err := CreateDocument(ctx, db, user.ID, DocumentInput{
			Title:    df.Title,
			Abstract: df.Abstract,
			Keywords: df.Keywords,
			Source:   df.Source,
		}, rev)
		if err != nil {
			return result, fmt.Errorf("document %q: %w", title, err)
		}
		result.Documents++

		for _, name := range df.Tags {
			tag, ok := tags[tagKey(user.ID, name)]
			if !ok {
				return result, fmt.Errorf("document %q: unknown tag %s", title, name)
			}
			if err := AttachTag(ctx, db, user.ID, doc.ID, tag.ID); err != nil {
				return result, err
			}
		}

		if err := driveTo(ctx, db, doc, df.Status, rev, log); err != nil {
			return result, fmt.Errorf("document %q: %w", title, err)
		}
	}

	log.Info("fixtures loaded", "users", result.Users, "tags", result.Tags, "documents", result.Documents)
	return result, nil
}

func seedUser(ctx context.Context, db *gorm.DB, uf UserFixture) (*models.User, bool, error) {
	var user models.User
	err := quiet(db.WithContext(ctx)).Where("email = ?", normalizeEmail(uf.Email)).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	created, err := Register(ctx, db, RegisterInput{
		Name:     uf.Name,
		Initials: uf.Initials,
		Email:    uf.Email,
		Password: uf.Password,
	})
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func documentExists(ctx context.Context, db *gorm.DB, ownerID uint64, title string) (bool, error) {
	var docs []models.Document
	if err := quiet(db.WithContext(ctx)).Select("id", "title", "source").
		Where("owner_id = ?", ownerID).Find(&docs).Error; err != nil {
		return false, err
	}
	for i := range docs {
		if ExtractTitle(&docs[i]) == title {
			return true, nil
		}
	}
	return false, nil
}

// driveTo walks doc forward along the lifecycle until it reaches status
func driveTo(ctx context.Context, db *gorm.DB, doc *models.Document, status string, rev models.SchemaRevision, log hclog.Logger) error {
	if status == "" {
		return nil
	}
	target, ok := models.ParseStatus(status)
	if !ok {
		return invalid("status", "unknown status "+status)
	}

	for doc.Status != target {
		next, ok := nextStatus[doc.Status]
		if !ok {
			return &TransitionError{From: doc.Status, To: target, Reason: "target is behind the current status"}
		}
		if !rev.Allows(next) {
			log.Warn("status not available under schema revision, leaving document as is",
				"document", doc.ID, "status", next, "revision", rev)
			return nil
		}

		step := string(next)
		updated, err := UpdateDocument(ctx, db, doc.OwnerID, doc.ID, DocumentUpdate{Status: &step}, rev)
		if err != nil {
			return err
		}
		doc = updated
	}
	return nil
}
