package communityRoutes

import (
	controllers "learnhub/controllers/community"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	communityValidator "learnhub/validators/community"

	"github.com/gofiber/fiber/v2"
)

func SetupCommunityRoutes(app *fiber.App, h *controllers.Handler, jwtSecret string) {
	auth := middleware.JWTMiddleware(jwtSecret)
	anyRole := middleware.RequireAnyRole()
	instructor := middleware.RequireRole(models.RoleInstructor)
	student := middleware.RequireRole(models.RoleStudent)

	communityID := validators.ParseID("communityID", "Community")
	messageID := validators.ParseID("messageID", "Message")

	communities := app.Group("/communities")
	communities.Post("/", auth, instructor, communityValidator.CreateCommunity(), h.CreateCommunity)
	communities.Get("/", auth, anyRole, h.ListCommunities)
	communities.Post("/:id/join", auth, student, communityID, h.Join)
	communities.Post("/:id/leave", auth, student, communityID, h.Leave)
	communities.Get("/:id/messages", auth, anyRole, communityID, validators.ListQuery(), h.ListMessages)
	communities.Post("/:id/messages", auth, anyRole, communityID, communityValidator.PostMessage(), h.PostMessage)

	messages := app.Group("/messages")
	messages.Put("/:id", auth, anyRole, messageID, communityValidator.UpdateMessage(), h.UpdateMessage)
	messages.Delete("/:id", auth, anyRole, messageID, h.DeleteMessage)
	messages.Post("/:id/pin", auth, instructor, messageID, h.TogglePin)
}
