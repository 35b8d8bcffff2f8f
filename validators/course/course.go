package courseValidator

import (
	"learnhub/middleware"
	"learnhub/services/content"
	"learnhub/utils"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.CourseInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validators.Struct(reqData); err != nil {
			return validators.Reject(c, err)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse accepts a partial course; blank values for required fields are
// rejected by the service.
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.CoursePatch)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("validatedCoursePatch", reqData)
		return c.Next()
	}
}

func PublishCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Published *bool `json:"published"`
		})
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}

		// publishing is the default action of the endpoint
		published := true
		if reqData.Published != nil {
			published = *reqData.Published
		}

		c.Locals("validatedPublished", published)
		return c.Next()
	}
}

func CourseThumbnail() fiber.Handler {
	return func(c *fiber.Ctx) error {
		file, err := utils.ReadFormFile(c, "thumbnail")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}
		if file == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"thumbnail": "thumbnail is required!"})
		}

		c.Locals("validatedThumbnail", file)
		return c.Next()
	}
}

func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.ModuleInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validators.Struct(reqData); err != nil {
			return validators.Reject(c, err)
		}
		if reqData.Position != nil && *reqData.Position < 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"position": "position must be at least 0!"})
		}

		c.Locals("validatedModule", reqData)
		return c.Next()
	}
}

func UpdateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.ModulePatch)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("validatedModulePatch", reqData)
		return c.Next()
	}
}
