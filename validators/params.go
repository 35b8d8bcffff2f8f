package validators

import (
	"strconv"
	"strings"

	"learnhub/apperr"
	"learnhub/middleware"
	"learnhub/services/paging"

	"github.com/gofiber/fiber/v2"
)

// ParseID validates the :id route param and stores it as a uint under local.
func ParseID(local, label string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("id"))
		if idStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, label+" ID is required!", nil)
		}

		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil || id == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+label+" ID!", nil)
		}

		c.Locals(local, uint(id))
		return c.Next()
	}
}

// ListQuery validates optional page and limit query params.
func ListQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(paging.Params)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)
		if reqData.Page < 0 {
			errors["page"] = "Page must be greater than 0!"
		}
		if reqData.Limit < 0 {
			errors["limit"] = "Limit must be greater than 0!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPage", reqData.Normalize())
		return c.Next()
	}
}

// Move validates a reposition request body.
func Move() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Position *int `json:"position"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Position == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"position": "position is required!"})
		}
		if *reqData.Position < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"position": "position must be at least 0!"})
		}

		c.Locals("validatedPosition", *reqData.Position)
		return c.Next()
	}
}

// Reject answers with the field map of a validation failure.
func Reject(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok && len(e.Fields) > 0 {
		return middleware.ValidationErrorResponse(c, e.Fields)
	}
	return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
}
