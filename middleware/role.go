package middleware

import (
	"learnhub/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole rejects principals whose role does not match, or who lack the
// domain id that role implies.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}

		allowed := false
		switch role {
		case models.RoleInstructor:
			allowed = p.IsInstructor()
		case models.RoleStudent:
			allowed = p.IsStudent()
		}
		if !allowed {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}

// RequireAnyRole accepts instructors and students alike.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		}
		if !p.IsInstructor() && !p.IsStudent() {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}
		return c.Next()
	}
}
