package controllers

import (
	"learnhub/logger"
	"learnhub/middleware"
	"learnhub/services/community"
	"learnhub/services/paging"
	"learnhub/storage"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the community and messaging endpoints.
type Handler struct {
	community *community.Service
	log       *logger.Logger
}

func NewHandler(svc *community.Service, log *logger.Logger) *Handler {
	return &Handler{community: svc, log: log.With("controller", "community")}
}

func unauthorized(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
}

func (h *Handler) CreateCommunity(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.IsInstructor() {
		return unauthorized(c)
	}
	reqData := c.Locals("validatedCommunity").(*community.CommunityInput)

	created, err := h.community.CreateCommunity(c.UserContext(), *p.InstructorID, *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Community created successfully!", created)
}

func (h *Handler) ListCommunities(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}

	communities, err := h.community.ListCommunities(c.UserContext(), p)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Communities fetched successfully!", communities)
}

func (h *Handler) Join(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.IsStudent() {
		return unauthorized(c)
	}

	member, err := h.community.Join(c.UserContext(), *p.StudentID, c.Locals("communityID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Joined community successfully!", member)
}

func (h *Handler) Leave(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.IsStudent() {
		return unauthorized(c)
	}

	if err := h.community.Leave(c.UserContext(), *p.StudentID, c.Locals("communityID").(uint)); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Left community successfully!", nil)
}

func (h *Handler) ListMessages(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	page := c.Locals("validatedPage").(paging.Params)

	messages, pagination, err := h.community.ListMessages(c.UserContext(), p, c.Locals("communityID").(uint), page)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Messages fetched successfully!", fiber.Map{
		"messages":   messages,
		"pagination": pagination,
	})
}

func (h *Handler) PostMessage(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	reqData := c.Locals("validatedMessage").(*community.MessageInput)
	file, _ := c.Locals("validatedAttachment").(*storage.FilePart)

	msg, err := h.community.CreateMessage(c.UserContext(), p, c.Locals("communityID").(uint), *reqData, file)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Message posted successfully!", msg)
}

func (h *Handler) UpdateMessage(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}
	reqData := c.Locals("validatedMessage").(*community.MessageInput)

	msg, err := h.community.UpdateMessage(c.UserContext(), p, c.Locals("messageID").(uint), *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Message updated successfully!", msg)
}

func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.community.DeleteMessage(c.UserContext(), p, c.Locals("messageID").(uint)); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Message deleted successfully!", nil)
}

func (h *Handler) TogglePin(c *fiber.Ctx) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.IsInstructor() {
		return unauthorized(c)
	}

	msg, err := h.community.TogglePin(c.UserContext(), *p.InstructorID, c.Locals("messageID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	message := "Message unpinned successfully!"
	if msg.IsPinned {
		message = "Message pinned successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, msg)
}
