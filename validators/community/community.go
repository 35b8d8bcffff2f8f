package communityValidator

import (
	"learnhub/middleware"
	"learnhub/services/community"
	"learnhub/utils"
	"learnhub/validators"

	"github.com/gofiber/fiber/v2"
)

func CreateCommunity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(community.CommunityInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validators.Struct(reqData); err != nil {
			return validators.Reject(c, err)
		}

		c.Locals("validatedCommunity", reqData)
		return c.Next()
	}
}

// PostMessage accepts JSON or a multipart form with an optional "attachment".
func PostMessage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(community.MessageInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validators.Struct(reqData); err != nil {
			return validators.Reject(c, err)
		}

		file, err := utils.ReadFormFile(c, "attachment")
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid multipart form!", nil)
		}

		c.Locals("validatedMessage", reqData)
		c.Locals("validatedAttachment", file)
		return c.Next()
	}
}

func UpdateMessage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(community.MessageInput)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validators.Struct(reqData); err != nil {
			return validators.Reject(c, err)
		}

		c.Locals("validatedMessage", reqData)
		return c.Next()
	}
}
