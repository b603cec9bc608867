package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/types"
	"github.com/localnerve/aris-backend/internal/utils"
	"gorm.io/gorm"
)

const documentNotFound = "Document not found"

// DocumentHandler handles the owner's document routes
type DocumentHandler struct {
	DB       *gorm.DB
	Render   *services.RenderService
	Revision models.SchemaRevision
}

// CreateDocumentRequest is the body of POST /documents
type CreateDocumentRequest struct {
	Title    string                 `json:"title"`
	Abstract string                 `json:"abstract"`
	Keywords types.FlexList[string] `json:"keywords" swaggertype:"array,string"`
	Source   string                 `json:"source"`
}

// UpdateDocumentRequest is the body of PUT /documents/:id. Absent fields are left unchanged.
type UpdateDocumentRequest struct {
	Title    *string                 `json:"title"`
	Abstract *string                 `json:"abstract"`
	Keywords *types.FlexList[string] `json:"keywords" swaggertype:"array,string"`
	Source   *string                 `json:"source"`
	Status   *string                 `json:"status"`
	Version  *types.FlexUint64       `json:"version" swaggertype:"integer"`
}

// ListDocuments handles GET /api/documents?status=...&tag=...
// @Summary List documents
// @Description List the caller's live documents, most recently updated first
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param tag query string false "Comma-separated tag ids; documents with any of them match"
// @Success 200 {array} documentResponse
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	tagIDs, err := parseIDList(c, "tag")
	if err != nil {
		return handleServiceError(c, err, "documents.list", "")
	}

	docs, err := services.ListDocuments(c.UserContext(), h.DB, userID(c), services.ListFilter{
		Status: c.Query("status"),
		TagIDs: tagIDs,
	})
	if err != nil {
		return handleServiceError(c, err, "documents.list", "")
	}

	return c.Status(fiber.StatusOK).JSON(newDocumentList(docs))
}

// CreateDocument handles POST /api/documents
// @Summary Create a document
// @Description Create a DRAFT document from RSM source
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateDocumentRequest true "Document"
// @Success 201 {object} documentResponse
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /documents [post]
func (h *DocumentHandler) CreateDocument(c *fiber.Ctx) error {
	var body CreateDocumentRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	doc, err := services.CreateDocument(c.UserContext(), h.DB, userID(c), services.DocumentInput{
		Title:    body.Title,
		Abstract: body.Abstract,
		Keywords: body.Keywords.Slice(),
		Source:   body.Source,
	}, h.Revision)
	if err != nil {
		return handleServiceError(c, err, "documents.create", "")
	}

	return utils.SuccessResponse(c, newDocumentResponse(doc), fiber.StatusCreated)
}

// GetDocument handles GET /api/documents/:id
// @Summary Get a document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} documentResponse
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "documents.get", documentNotFound)
	}

	doc, err := services.GetDocument(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return handleServiceError(c, err, "documents.get", documentNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(newDocumentResponse(doc))
}

// UpdateDocument handles PUT /api/documents/:id
// @Summary Update a document
// @Description Edit fields and/or move the document along its lifecycle in one transaction
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param body body UpdateDocumentRequest true "Changes"
// @Success 200 {object} documentResponse
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 422 {object} utils.ErrorResponseStruct
// @Router /documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "documents.update", documentNotFound)
	}

	var body UpdateDocumentRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	update := services.DocumentUpdate{
		DocumentEdits: services.DocumentEdits{
			Title:    body.Title,
			Abstract: body.Abstract,
			Source:   body.Source,
		},
		Status: body.Status,
	}
	if body.Keywords != nil {
		joined := strings.Join(body.Keywords.Slice(), ",")
		update.Keywords = &joined
	}
	if body.Version != nil {
		version := body.Version.Uint64()
		update.Version = &version
	}

	doc, err := services.UpdateDocument(c.UserContext(), h.DB, userID(c), id, update, h.Revision)
	if err != nil {
		return handleServiceError(c, err, "documents.update", documentNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(newDocumentResponse(doc))
}

// DeleteDocument handles DELETE /api/documents/:id
// @Summary Soft delete a document
// @Description The first delete wins; deleting again returns the original timestamp
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} utils.DeleteResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "documents.delete", documentNotFound)
	}

	deletedAt, err := services.SoftDeleteDocument(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return handleServiceError(c, err, "documents.delete", documentNotFound)
	}

	return utils.DeleteResponse(c, fmt.Sprintf("Document %d soft deleted", id), deletedAt)
}

// DuplicateDocument handles POST /api/documents/:id/duplicate
// @Summary Duplicate a document
// @Description Copy a document, its settings and tags into a new DRAFT
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 201 {object} documentResponse
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/duplicate [post]
func (h *DocumentHandler) DuplicateDocument(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "documents.duplicate", documentNotFound)
	}

	doc, err := services.DuplicateDocument(c.UserContext(), h.DB, userID(c), id, h.Revision)
	if err != nil {
		return handleServiceError(c, err, "documents.duplicate", documentNotFound)
	}

	return utils.SuccessResponse(c, newDocumentResponse(doc), fiber.StatusCreated)
}

// GetContent handles GET /api/documents/:id/content
// @Summary Rendered HTML of a document
// @Description Rendering failures answer 200 with an empty content and rendered=false
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} contentResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/content [get]
func (h *DocumentHandler) GetContent(c *fiber.Ctx) error {
	doc, err := h.owned(c, "documents.content")
	if doc == nil {
		return err
	}

	html := h.Render.DocumentContent(c.UserContext(), h.DB, doc)
	return c.Status(fiber.StatusOK).JSON(newContentResponse(doc.Source, html))
}

// GetTitle handles GET /api/documents/:id/title
// @Summary Title of a document
// @Description The explicit title, or the title parsed from the source
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/title [get]
func (h *DocumentHandler) GetTitle(c *fiber.Ctx) error {
	doc, err := h.owned(c, "documents.title")
	if doc == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"title": services.ExtractTitle(doc)})
}

// GetSection handles GET /api/documents/:id/sections/:name
// @Summary Section of a rendered document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param name path string true "Section id or class"
// @Success 200 {object} services.SectionNode
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/sections/{name} [get]
func (h *DocumentHandler) GetSection(c *fiber.Ctx) error {
	doc, err := h.owned(c, "documents.section")
	if doc == nil {
		return err
	}
	return sectionResponse(c, h.Render.DocumentContent(c.UserContext(), h.DB, doc), c.Params("name"))
}

// GetSettings handles GET /api/documents/:id/settings
// @Summary Display settings of a document
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/settings [get]
func (h *DocumentHandler) GetSettings(c *fiber.Ctx) error {
	doc, err := h.owned(c, "documents.settings")
	if doc == nil {
		return err
	}
	return settingsResponse(c, doc)
}

// PutSettings handles PUT /api/documents/:id/settings
// @Summary Replace the display settings of a document
// @Description Settings may change in any lifecycle state
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param body body object true "Settings object"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/settings [put]
func (h *DocumentHandler) PutSettings(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "documents.settings", documentNotFound)
	}

	doc, err := services.UpdateDocumentSettings(c.UserContext(), h.DB, userID(c), id, json.RawMessage(c.Body()))
	if err != nil {
		return handleServiceError(c, err, "documents.settings", documentNotFound)
	}
	return settingsResponse(c, doc)
}

// owned loads the caller's document named by the id parameter. On failure the
// returned document is nil and the error is the already written response.
func (h *DocumentHandler) owned(c *fiber.Ctx, errorType string) (*models.Document, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, handleServiceError(c, err, errorType, documentNotFound)
	}

	doc, err := services.GetDocument(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return nil, handleServiceError(c, err, errorType, documentNotFound)
	}
	return doc, nil
}

func settingsResponse(c *fiber.Ctx, doc *models.Document) error {
	settings := []byte("{}")
	if !doc.Settings.IsEmpty() {
		settings = doc.Settings.JSON
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(settings)
}

func sectionResponse(c *fiber.Ctx, html, name string) error {
	section, err := services.ExtractSection(html, name)
	if err != nil {
		return handleServiceError(c, err, "section", fmt.Sprintf("Section '%s' not found", name))
	}
	return c.Status(fiber.StatusOK).JSON(section)
}
