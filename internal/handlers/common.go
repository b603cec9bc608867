// common.go
//
// A manuscript management backend for the Aris platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of aris-backend.
// aris-backend is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// aris-backend is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with aris-backend.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/middleware"
	"github.com/localnerve/aris-backend/internal/services"
	"github.com/localnerve/aris-backend/internal/types"
	"github.com/localnerve/aris-backend/internal/utils"
)

// userID returns the authenticated user id set by middleware.RequireAuth
func userID(c *fiber.Ctx) uint64 {
	id, _ := c.Locals(middleware.UserIDKey).(uint64)
	return id
}

// idParam parses a numeric path parameter
func idParam(c *fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &services.ValidationError{Fields: map[string]string{name: "must be a positive integer"}}
	}
	return id, nil
}

// parseIDList extracts ids from query parameters,
// supporting both multiple keys and comma-separated values.
func parseIDList(c *fiber.Ctx, key string) ([]uint64, error) {
	idMap := make(map[uint64]struct{})

	// Visit all query arguments to collect multiple parameters of the same key
	args := c.Context().QueryArgs()
	for k, value := range args.All() {
		if string(k) != key {
			continue
		}
		// Split by comma in case the value itself is comma-separated
		for _, v := range strings.Split(string(value), ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, &services.ValidationError{Fields: map[string]string{key: "must be a list of ids"}}
			}
			idMap[id] = struct{}{}
		}
	}

	if len(idMap) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(idMap))
	for id := range idMap {
		ids = append(ids, id)
	}

	return ids, nil
}

// handleServiceError maps service errors onto response envelopes
func handleServiceError(c *fiber.Ctx, err error, errorType, notFound string) error {
	var validationErr *services.ValidationError
	var transitionErr *services.TransitionError

	switch {
	case errors.As(err, &validationErr):
		return utils.ValidationErrorResponse(c, validationErr.Error(), validationErr.Fields)
	case errors.As(err, &transitionErr):
		return utils.TransitionErrorResponse(c, string(transitionErr.From), string(transitionErr.To), transitionErr.Reason)
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, notFound)
	case errors.Is(err, services.ErrForbidden):
		return utils.ErrorResponse(c, "Forbidden", fiber.StatusForbidden, errorType+".forbidden")
	case errors.Is(err, services.ErrVersion):
		return utils.VersionErrorResponse(c)
	case errors.Is(err, services.ErrConflict):
		return utils.ErrorResponse(c, err.Error(), fiber.StatusConflict, errorType+".conflict")
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.ErrorResponse(c, "Invalid credentials", fiber.StatusUnauthorized, errorType+".credentials")
	}

	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, errorType)
}

// invalidInput sends the response for an unparseable request body
func invalidInput(c *fiber.Ctx) error {
	return utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, "data.validation.input")
}

// ErrorHandler handles errors globally
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Middleware failures
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	// Check for version errors
	versionError := false
	if strings.HasPrefix(message, services.ErrVersion.Error()) {
		versionError = true
		errorType = "version"
		code = fiber.StatusConflict
	}

	return c.Status(code).JSON(fiber.Map{
		"status":       code,
		"message":      message,
		"ok":           false,
		"versionError": versionError,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"url":          c.OriginalURL(),
		"type":         errorType,
	})
}

// NotFound is the catch-all 404 handler
func NotFound(c *fiber.Ctx) error {
	return utils.NotFoundResponse(c, "[404] Resource Not Found")
}
