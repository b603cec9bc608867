package handlers

import (
	"encoding/json"
	"time"

	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
)

// userResponse is the public view of an account
type userResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Initials  string    `json:"initials"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Initials:  u.Initials,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// documentResponse is the owner's view of a document
type documentResponse struct {
	ID            uint64          `json:"id"`
	Title         string          `json:"title"`
	Abstract      string          `json:"abstract"`
	Keywords      []string        `json:"keywords"`
	Status        string          `json:"status"`
	OwnerID       uint64          `json:"owner_id"`
	Source        string          `json:"source"`
	Version       uint64          `json:"version"`
	DOI           *string         `json:"doi,omitempty"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	PublicUUID    *string         `json:"public_uuid,omitempty"`
	PermalinkSlug *string         `json:"permalink_slug,omitempty"`
	Settings      json.RawMessage `json:"settings,omitempty"`
	Tags          []models.Tag    `json:"tags"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func newDocumentResponse(d *models.Document) *documentResponse {
	resp := &documentResponse{
		ID:            d.ID,
		Title:         services.ExtractTitle(d),
		Abstract:      d.Abstract,
		Keywords:      services.SplitKeywords(d.Keywords),
		Status:        string(d.Status),
		OwnerID:       d.OwnerID,
		Source:        d.Source,
		Version:       d.Version,
		DOI:           d.DOI,
		PublishedAt:   d.PublishedAt,
		PublicUUID:    d.PublicUUID,
		PermalinkSlug: d.PermalinkSlug,
		Tags:          d.Tags,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if !d.Settings.IsEmpty() {
		resp.Settings = json.RawMessage(d.Settings.JSON)
	}
	if resp.Tags == nil {
		resp.Tags = []models.Tag{}
	}
	return resp
}

func newDocumentList(docs []models.Document) []*documentResponse {
	list := make([]*documentResponse, 0, len(docs))
	for i := range docs {
		list = append(list, newDocumentResponse(&docs[i]))
	}
	return list
}

// contentResponse carries rendered HTML. Rendered is false when rendering was unavailable.
type contentResponse struct {
	Content  string `json:"content"`
	Rendered bool   `json:"rendered"`
}

func newContentResponse(source, html string) contentResponse {
	return contentResponse{Content: html, Rendered: html != "" || source == ""}
}
