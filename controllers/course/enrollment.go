package controllers

import (
	"learnhub/middleware"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	// Retrieve studentId from JWT middleware
	student, ok := studentID(c)
	if !ok {
		return unauthorized(c)
	}

	// Check course is published and belongs to the student's instructor, then enroll
	enrollment, err := h.enrollment.Enroll(c.UserContext(), student, c.Locals("courseID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

func (h *Handler) MyEnrollments(c *fiber.Ctx) error {
	// Retrieve studentId from JWT middleware
	student, ok := studentID(c)
	if !ok {
		return unauthorized(c)
	}

	// Fetch enrollments with progress
	enrollments, err := h.enrollment.ListStudentEnrollments(c.UserContext(), student)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", enrollments)
}

func (h *Handler) EnrollmentProgress(c *fiber.Ctx) error {
	// Retrieve studentId from JWT middleware
	student, ok := studentID(c)
	if !ok {
		return unauthorized(c)
	}

	// Check enrollment belongs to the student and compute progress
	detail, err := h.enrollment.StudentProgress(c.UserContext(), student, c.Locals("enrollmentID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", detail)
}

// RecordProgress marks a lesson complete or incomplete and stores watch time
func (h *Handler) RecordProgress(c *fiber.Ctx) error {
	// Retrieve studentId from JWT middleware
	student, ok := studentID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	completed := c.Locals("validatedCompleted").(bool)
	watchTime := c.Locals("validatedWatchTime").(int)

	// Upsert lesson progress
	progress, err := h.enrollment.RecordProgress(c.UserContext(), student, c.Locals("lessonID").(uint), completed, watchTime)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress updated successfully!", progress)
}
