package controllers

import (
	"learnhub/logger"
	"learnhub/middleware"
	"learnhub/services/content"
	"learnhub/services/dashboard"
	"learnhub/services/enrollment"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the instructor and student course endpoints.
type Handler struct {
	content    *content.Service
	enrollment *enrollment.Service
	dashboard  *dashboard.Service
	log        *logger.Logger
}

func NewHandler(contentSvc *content.Service, enrollmentSvc *enrollment.Service, dashboardSvc *dashboard.Service, log *logger.Logger) *Handler {
	return &Handler{
		content:    contentSvc,
		enrollment: enrollmentSvc,
		dashboard:  dashboardSvc,
		log:        log.With("controller", "course"),
	}
}

func instructorID(c *fiber.Ctx) (uint, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.IsInstructor() {
		return 0, false
	}
	return *p.InstructorID, true
}

func studentID(c *fiber.Ctx) (uint, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || !p.IsStudent() {
		return 0, false
	}
	return *p.StudentID, true
}

func unauthorized(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
}
