package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/utils"
	"gorm.io/gorm"
)

const assetNotFound = "Asset not found"

// AssetHandler handles file asset routes
type AssetHandler struct {
	DB *gorm.DB
}

// ListAssets handles GET /api/documents/:id/assets
// @Summary List the assets of a document
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {array} models.FileAsset
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/assets [get]
func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "assets.list", documentNotFound)
	}

	assets, err := services.ListAssets(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return handleServiceError(c, err, "assets.list", documentNotFound)
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}

// CreateAsset handles POST /api/documents/:id/assets
// @Summary Upload an asset
// @Description Binary images (every image type but SVG) must be base64 encoded
// @Tags Assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param body body services.AssetInput true "Asset"
// @Success 201 {object} models.FileAsset
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /documents/{id}/assets [post]
func (h *AssetHandler) CreateAsset(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "assets.create", documentNotFound)
	}

	var body services.AssetInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	asset, err := services.CreateAsset(c.UserContext(), h.DB, userID(c), id, body)
	if err != nil {
		return handleServiceError(c, err, "assets.create", documentNotFound)
	}
	return utils.SuccessResponse(c, asset, fiber.StatusCreated)
}

// GetAsset handles GET /api/assets/:id
// @Summary Get an asset
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} models.FileAsset
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "assets.get", assetNotFound)
	}

	asset, err := services.GetAsset(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return handleServiceError(c, err, "assets.get", assetNotFound)
	}
	return c.Status(fiber.StatusOK).JSON(asset)
}

// DeleteAsset handles DELETE /api/assets/:id
// @Summary Soft delete an asset
// @Tags Assets
// @Produce json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} utils.DeleteResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /assets/{id} [delete]
func (h *AssetHandler) DeleteAsset(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return handleServiceError(c, err, "assets.delete", assetNotFound)
	}

	deletedAt, err := services.DeleteAsset(c.UserContext(), h.DB, userID(c), id)
	if err != nil {
		return handleServiceError(c, err, "assets.delete", assetNotFound)
	}
	return utils.DeleteResponse(c, fmt.Sprintf("Asset %d soft deleted", id), deletedAt)
}
