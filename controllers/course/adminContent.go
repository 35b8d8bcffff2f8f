package controllers

import (
	"learnhub/middleware"
	"learnhub/services/content"
	"learnhub/storage"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateLesson(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedLesson").(*content.LessonInput)
	files, _ := c.Locals("validatedFiles").([]storage.FilePart)

	// Check if module exists, upload files and insert the lesson
	lesson, err := h.content.CreateLesson(c.UserContext(), instructor, c.Locals("moduleID").(uint), *reqData, files)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

func (h *Handler) UpdateLesson(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedLessonPatch").(*content.LessonPatch)
	files, _ := c.Locals("validatedFiles").([]storage.FilePart)

	// Update lesson fields and append new files
	lesson, err := h.content.UpdateLesson(c.UserContext(), instructor, c.Locals("lessonID").(uint), *reqData, files)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

func (h *Handler) AddLessonFiles(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	files := c.Locals("validatedFiles").([]storage.FilePart)

	// Append files to the lesson
	lesson, err := h.content.AddLessonFiles(c.UserContext(), instructor, c.Locals("lessonID").(uint), files)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Files uploaded successfully!", lesson)
}

func (h *Handler) RemoveLessonFile(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Remove the file reference and release its blob
	lesson, err := h.content.RemoveLessonFile(c.UserContext(), instructor, c.Locals("lessonID").(uint), c.Locals("fileKey").(string))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "File removed successfully!", lesson)
}

func (h *Handler) MoveLesson(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Move lesson within its module
	lesson, err := h.content.MoveLesson(c.UserContext(), instructor, c.Locals("lessonID").(uint), c.Locals("validatedPosition").(int))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson moved successfully!", lesson)
}

func (h *Handler) DeleteLesson(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Delete lesson and compact the remaining lessons
	if err := h.content.DeleteLesson(c.UserContext(), instructor, c.Locals("lessonID").(uint)); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

func (h *Handler) AddVideo(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedVideo").(*content.VideoInput)
	file, _ := c.Locals("validatedVideoFile").(*storage.FilePart)

	// Check if lesson exists and append the video
	video, err := h.content.AddVideo(c.UserContext(), instructor, c.Locals("lessonID").(uint), *reqData, file)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Video added successfully!", video)
}

func (h *Handler) MoveVideo(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Move video within its lesson
	video, err := h.content.MoveVideo(c.UserContext(), instructor, c.Locals("videoID").(uint), c.Locals("validatedPosition").(int))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video moved successfully!", video)
}

func (h *Handler) DeleteVideo(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Delete video and release its blob
	if err := h.content.DeleteVideo(c.UserContext(), instructor, c.Locals("videoID").(uint)); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video deleted successfully!", nil)
}
