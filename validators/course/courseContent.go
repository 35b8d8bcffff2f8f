package courseValidator

import (
	"net/url"
	"strings"

	"learnhub/middleware"
	"learnhub/services/content"
	"learnhub/utils"

	"github.com/gofiber/fiber/v2"
)

// Lesson and video bodies are only shape-checked here. Field and file errors
// are reported together by the content service.

func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.LessonInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		files, err := utils.ReadFormFiles(c, "files")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}

		c.Locals("validatedLesson", reqData)
		c.Locals("validatedFiles", files)
		return c.Next()
	}
}

func UpdateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.LessonPatch)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		files, err := utils.ReadFormFiles(c, "files")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}

		c.Locals("validatedLessonPatch", reqData)
		c.Locals("validatedFiles", files)
		return c.Next()
	}
}

func LessonFiles() fiber.Handler {
	return func(c *fiber.Ctx) error {
		files, err := utils.ReadFormFiles(c, "files")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}
		if len(files) == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{"files": "files is required!"})
		}

		c.Locals("validatedFiles", files)
		return c.Next()
	}
}

func FileKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := url.PathUnescape(c.Params("key"))
		if err != nil || strings.TrimSpace(key) == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid file key!", nil)
		}

		c.Locals("fileKey", key)
		return c.Next()
	}
}

func AddVideo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(content.VideoInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		file, err := utils.ReadFormFile(c, "file")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}

		c.Locals("validatedVideo", reqData)
		c.Locals("validatedVideoFile", file)
		return c.Next()
	}
}
