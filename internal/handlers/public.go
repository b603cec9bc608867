package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"gorm.io/gorm"
)

const publicationNotFound = "Publication not found"

// PublicHandler serves citation pages of published documents without authentication
type PublicHandler struct {
	DB       *gorm.DB
	Render   *services.RenderService
	Revision models.SchemaRevision
}

// GetPublication handles GET /api/public/:identifier
// @Summary Citation metadata of a publication
// @Description The identifier is tried as a public UUID first, then as a permalink slug
// @Tags Public
// @Produce json
// @Param identifier path string true "Public UUID or permalink slug"
// @Success 200 {object} services.Citation
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /public/{identifier} [get]
func (h *PublicHandler) GetPublication(c *fiber.Ctx) error {
	doc, err := h.resolve(c)
	if doc == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(services.NewCitation(doc))
}

// GetContent handles GET /api/public/:identifier/content
// @Summary Rendered HTML of a publication
// @Tags Public
// @Produce json
// @Param identifier path string true "Public UUID or permalink slug"
// @Success 200 {object} contentResponse
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /public/{identifier}/content [get]
func (h *PublicHandler) GetContent(c *fiber.Ctx) error {
	doc, err := h.resolve(c)
	if doc == nil {
		return err
	}
	html := h.Render.DocumentContent(c.UserContext(), h.DB, doc)
	return c.Status(fiber.StatusOK).JSON(newContentResponse(doc.Source, html))
}

// GetCitation handles GET /api/public/:identifier/cite
// @Summary BibTeX entry of a publication
// @Tags Public
// @Produce plain
// @Param identifier path string true "Public UUID or permalink slug"
// @Success 200 {string} string
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /public/{identifier}/cite [get]
func (h *PublicHandler) GetCitation(c *fiber.Ctx) error {
	doc, err := h.resolve(c)
	if doc == nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/x-bibtex; charset=utf-8")
	return c.Status(fiber.StatusOK).SendString(services.NewCitation(doc).BibTeX())
}

// GetSection handles GET /api/public/:identifier/sections/:name
// @Summary Section of a publication
// @Tags Public
// @Produce json
// @Param identifier path string true "Public UUID or permalink slug"
// @Param name path string true "Section id or class"
// @Success 200 {object} services.SectionNode
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /public/{identifier}/sections/{name} [get]
func (h *PublicHandler) GetSection(c *fiber.Ctx) error {
	doc, err := h.resolve(c)
	if doc == nil {
		return err
	}
	return sectionResponse(c, h.Render.DocumentContent(c.UserContext(), h.DB, doc), c.Params("name"))
}

// resolve resolves the identifier parameter. On failure the returned document is
// nil and the error is the already written response.
func (h *PublicHandler) resolve(c *fiber.Ctx) (*models.Document, error) {
	doc, err := services.ResolvePublished(c.UserContext(), h.DB, c.Params("identifier"), h.Revision)
	if err != nil {
		return nil, handleServiceError(c, err, "public.resolve", publicationNotFound)
	}
	return doc, nil
}
