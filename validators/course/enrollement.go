package courseValidator

import (
	"learnhub/middleware"

	"github.com/gofiber/fiber/v2"
)

func RecordProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Completed *bool `json:"completed"`
			WatchTime int   `json:"watch_time"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)
		if reqData.Completed == nil {
			errors["completed"] = "completed is required!"
		}
		if reqData.WatchTime < 0 {
			errors["watch_time"] = "watch_time must be at least 0!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCompleted", *reqData.Completed)
		c.Locals("validatedWatchTime", reqData.WatchTime)
		return c.Next()
	}
}
