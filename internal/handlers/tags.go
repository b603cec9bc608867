package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/utils"
	"gorm.io/gorm"
)

const tagNotFound = "Tag not found"

// TagHandler handles tag routes
type TagHandler struct {
	DB *gorm.DB
}

// ListTags handles GET /api/tags
// @Summary List tags
// @Tags Tags
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Tag
// @Router /tags [get]
func (h *TagHandler) ListTags(c *fiber.Ctx) error {
	tags, err := services.ListTags(c.UserContext(), h.DB, userID(c))
	if err != nil {
		return handleServiceError(c, err, "tags.list", "")
	}
	return c.Status(fiber.StatusOK).JSON(tags)
}

// CreateTag handles POST /api/tags
// @Summary Create a tag
// @Tags Tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.TagInput true "Tag"
// @Success 201 {object} models.Tag
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /tags [post]
func (h *TagHandler) CreateTag(c *fiber.Ctx) error {
	var body services.TagInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	tag, err := services.CreateTag(c.UserContext(), h.DB, userID(c), body)
	if err != nil {
		return handleServiceError(c, err, "tags.create", "")
	}
	return utils.SuccessResponse(c, tag, fiber.StatusCreated)
}

// UpdateTag handles PUT /api/tags/:id
// @Summary Update a tag
// @Tags Tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tag ID"
// @Param body body services.TagInput true "Tag"
// @Success 200 {object} models.Tag
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /tags/{id} [put]
func (h *TagHandler) UpdateTag(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "tags.update", tagNotFound)
	}

	var body services.TagInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	tag, err := services.UpdateTag(c.UserContext(), h.DB, userID(c), id, body)
	if err != nil {
		return handleServiceError(c, err, "tags.update", tagNotFound)
	}
	return c.Status(fiber.StatusOK).JSON(tag)
}

// DeleteTag handles DELETE /api/tags/:id
// @Summary Delete a tag
// @Description Soft delete a tag and detach it from every document
// @Tags Tags
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tag ID"
// @Success 200 {object} utils.MutationResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "tags.delete", tagNotFound)
	}

	if err := services.DeleteTag(c.UserContext(), h.DB, userID(c), id); err != nil {
		return handleServiceError(c, err, "tags.delete", tagNotFound)
	}
	return utils.MutationSuccessResponse(c, fmt.Sprintf("Tag %d soft deleted", id))
}

// DocumentTags handles GET /api/documents/:id/tags
// @Summary Tags of a document
// @Tags Tags
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {array} models.Tag
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/tags [get]
func (h *TagHandler) DocumentTags(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "tags.document", documentNotFound)
	}

	tags, err := services.DocumentTags(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return handleServiceError(c, err, "tags.document", documentNotFound)
	}
	return c.Status(fiber.StatusOK).JSON(tags)
}

// AttachTag handles POST /api/documents/:id/tags/:tagId
// @Summary Attach a tag to a document
// @Tags Tags
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param tagId path int true "Tag ID"
// @Success 200 {object} utils.MutationResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/tags/{tagId} [post]
func (h *TagHandler) AttachTag(c *fiber.Ctx) error {
	return h.assign(c, true)
}

// DetachTag handles DELETE /api/documents/:id/tags/:tagId
// @Summary Detach a tag from a document
// @Tags Tags
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param tagId path int true "Tag ID"
// @Success 200 {object} utils.MutationResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/tags/{tagId} [delete]
func (h *TagHandler) DetachTag(c *fiber.Ctx) error {
	return h.assign(c, false)
}

func (h *TagHandler) assign(c *fiber.Ctx, attach bool) error {
	docID, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "tags.assign", documentNotFound)
	}
	tagID, err := idParam(c, "tagId")
	if err != nil {
		return handleServiceError(c, err, "tags.assign", tagNotFound)
	}

	if attach {
		err = services.AttachTag(c.UserContext(), h.DB, userID(c), docID, tagID)
	} else {
		err = services.DetachTag(c.UserContext(), h.DB, userID(c), docID, tagID)
	}
	if err != nil {
		return handleServiceError(c, err, "tags.assign", "Document or tag not found")
	}

	verb := "attached to"
	if !attach {
		verb = "detached from"
	}
	return utils.MutationSuccessResponse(c, fmt.Sprintf("Tag %d %s document %d", tagID, verb, docID))
}
