package middleware

import (
	"learnhub/apperr"
	"learnhub/logger"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", errors)
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindDependency:
		return fiber.StatusBadRequest
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse writes err in the standard envelope. Internal causes are
// logged and never echoed to the client.
func ErrorResponse(c *fiber.Ctx, log *logger.Logger, err error) error {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal("Something went wrong!", err)
	}

	status := StatusFor(e.Kind)
	if e.Kind == apperr.KindValidation && len(e.Fields) > 0 {
		return JsonResponse(c, status, false, e.Message, e.Fields)
	}
	if status >= fiber.StatusInternalServerError || e.Kind == apperr.KindDependency {
		log.Error("Request failed", "method", c.Method(), "path", c.Path(), "kind", e.Kind.String(), "error", err)
	}
	return JsonResponse(c, status, false, e.Message, nil)
}
