package controllers

import (
	"learnhub/middleware"
	"learnhub/services/content"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateModule(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedModule").(*content.ModuleInput)

	// Check if course exists and insert the module at the requested position
	module, err := h.content.CreateModule(c.UserContext(), instructor, c.Locals("courseID").(uint), *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

func (h *Handler) UpdateModule(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}
	// Retrieve validated request data
	reqData := c.Locals("validatedModulePatch").(*content.ModulePatch)

	// Update module fields
	module, err := h.content.UpdateModule(c.UserContext(), instructor, c.Locals("moduleID").(uint), *reqData)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

// MoveModule repositions a module, shifting its siblings
func (h *Handler) MoveModule(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Move module within its course
	module, err := h.content.MoveModule(c.UserContext(), instructor, c.Locals("moduleID").(uint), c.Locals("validatedPosition").(int))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module moved successfully!", module)
}

func (h *Handler) DeleteModule(c *fiber.Ctx) error {
	// Retrieve instructorId from JWT middleware
	instructor, ok := instructorID(c)
	if !ok {
		return unauthorized(c)
	}

	// Delete module and its lessons, then compact the remaining modules
	if err := h.content.DeleteModule(c.UserContext(), instructor, c.Locals("moduleID").(uint)); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}
