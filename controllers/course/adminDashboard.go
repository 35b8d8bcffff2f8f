package controllers

import (
	"learnhub/middleware"
	"learnhub/services/paging"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Aggregate dashboard counts
	stats, err := h.dashboard.InstructorStats(c.UserContext(), instructor)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", stats)
}

func (h *Handler) CourseEnrollments(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	page := c.Locals("validatedPage").(paging.Params)

	// Check if course belongs to the instructor and fetch its enrollments
	enrollments, pagination, err := h.enrollment.ListCourseEnrollments(c.UserContext(), instructor, c.Locals("courseID").(uint), page)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"pagination":  pagination,
	})
}
