package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles account registration and token routes
type AuthHandler struct {
	DB     *gorm.DB
	Issuer *services.TokenIssuer
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	User *userResponse `json:"user"`
	*services.TokenPair
}

// Register handles POST /api/auth/register
// @Summary Register an account
// @Description Create a user account with an email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Account"
// @Success 201 {object} userResponse
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var body services.RegisterInput
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	user, err := services.Register(c.UserContext(), h.DB, body)
	if err != nil {
		return handleServiceError(c, err, "auth.register", "")
	}

	return utils.SuccessResponse(c, newUserResponse(user), fiber.StatusCreated)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Exchange credentials for an access and refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body LoginRequest
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Password == "" {
		return invalidInput(c)
	}

	user, tokens, err := services.Login(c.UserContext(), h.DB, h.Issuer, body.Email, body.Password)
	if err != nil {
		return handleServiceError(c, err, "auth.login", "")
	}

	return utils.SuccessResponse(c, LoginResponse{User: newUserResponse(user), TokenPair: tokens}, fiber.StatusOK)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "Refresh token"
// @Success 200 {object} services.TokenPair
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var body RefreshRequest
	if err := c.BodyParser(&body); err != nil || body.RefreshToken == "" {
		return invalidInput(c)
	}

	tokens, err := services.Refresh(c.UserContext(), h.DB, h.Issuer, body.RefreshToken)
	if err != nil {
		return handleServiceError(c, err, "auth.refresh", "")
	}

	return utils.SuccessResponse(c, tokens, fiber.StatusOK)
}

// UserHandler handles routes for the authenticated account
type UserHandler struct {
	DB *gorm.DB
}

// Me handles GET /api/users/me
// @Summary Get the current account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} userResponse
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /users/me [get]
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := services.GetUser(c.UserContext(), h.DB, userID(c))
	if err != nil {
		return handleServiceError(c, err, "users.me", "User not found")
	}
	return utils.SuccessResponse(c, newUserResponse(user), fiber.StatusOK)
}

// UpdateMe handles PUT /api/users/me
// @Summary Update the current account
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ProfileUpdate true "Profile changes"
// @Success 200 {object} userResponse
// @Failure 400 {object} utils.ValidationErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var body services.ProfileUpdate
	if err := c.BodyParser(&body); err != nil {
		return invalidInput(c)
	}

	user, err := services.UpdateProfile(c.UserContext(), h.DB, userID(c), body)
	if err != nil {
		return handleServiceError(c, err, "users.update", "User not found")
	}
	return utils.SuccessResponse(c, newUserResponse(user), fiber.StatusOK)
}

// DeleteMe handles DELETE /api/users/me
// @Summary Delete the current account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.DeleteResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	id := userID(c)
	deletedAt, err := services.DeleteUser(c.UserContext(), h.DB, id)
	if err != nil {
		return handleServiceError(c, err, "users.delete", "User not found")
	}
	return utils.DeleteResponse(c, fmt.Sprintf("User %d soft deleted", id), deletedAt)
}
