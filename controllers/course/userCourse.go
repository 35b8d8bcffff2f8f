package controllers

import (
	"learnhub/middleware"
	"learnhub/services/paging"

	"github.com/gofiber/fiber/v2"
)

// ListPublishedCourses lists the published courses of the student's instructor.
func (h *Handler) ListPublishedCourses(c *fiber.Ctx) error {
	// Retrieve studentId from JWT middleware
	student, ok := studentID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	page := c.Locals("validatedPage").(paging.Params)

	// Fetch published courses of the student's instructor
	courses, pagination, err := h.content.ListPublishedCourses(c.UserContext(), student, page)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": pagination,
	})
}

// CourseContent returns the course tree as the student is allowed to see it
func (h *Handler) CourseContent(c *fiber.Ctx) error {
	// Retrieve studentId from JWT middleware
	student, ok := studentID(c)
	if !ok {
		return unauthorized(c)
	}

	// Load full content when enrolled, otherwise preview lessons only
	view, err := h.content.StudentCourseContent(c.UserContext(), student, c.Locals("courseID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", view)
}
