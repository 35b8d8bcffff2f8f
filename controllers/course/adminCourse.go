package controllers

import (
	"learnhub/middleware"
	"learnhub/services/content"
	"learnhub/services/paging"
	"learnhub/storage"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedCourse").(*content.CourseInput)

	// Create the course for this instructor
	created, err := h.content.CreateCourse(c.UserContext(), instructor, *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", created)
}

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	page := c.Locals("validatedPage").(paging.Params)

	// Fetch paginated courses with module and lesson counts
	courses, pagination, err := h.content.ListCourses(c.UserContext(), instructor, page)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": pagination,
	})
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Check if course exists and belongs to the instructor, then load the full tree
	tree, err := h.content.GetCourseTree(c.UserContext(), instructor, c.Locals("courseID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", tree)
}

func (h *Handler) UpdateCourse(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedCoursePatch").(*content.CoursePatch)

	// Check if course exists and apply only the provided fields
	updated, err := h.content.UpdateCourse(c.UserContext(), instructor, c.Locals("courseID").(uint), *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", updated)
}

func (h *Handler) PublishCourse(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	published := c.Locals("validatedPublished").(bool)

	// Toggle the publish flag
	updated, err := h.content.PublishCourse(c.UserContext(), instructor, c.Locals("courseID").(uint), published)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	message := "Course published successfully!"
	if !published {
		message = "Course unpublished successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, updated)
}

func (h *Handler) SetThumbnail(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	file := c.Locals("validatedThumbnail").(*storage.FilePart)

	// Upload the new thumbnail; the previous one is released
	updated, err := h.content.SetThumbnail(c.UserContext(), instructor, c.Locals("courseID").(uint), *file)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Thumbnail updated successfully!", updated)
}

// DeleteCourse removes a course with everything under it
func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Delete course with all modules, lessons, videos and enrollments
	if err := h.content.DeleteCourse(c.UserContext(), instructor, c.Locals("courseID").(uint)); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}
