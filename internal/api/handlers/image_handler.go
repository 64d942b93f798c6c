package handlers

import (
	"log/slog"

	"github.com/arjunmk/postpilot/internal/service"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type ImageHandler struct {
	s service.ImageService
}

func NewImageHandler(s service.ImageService) *ImageHandler {
	return &ImageHandler{s: s}
}

func (h *ImageHandler) GenerateImage(c *fiber.Ctx) error {
	var req transfer.GenerationRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Prompt is required",
		})
	}

	gen, result, err := h.s.GenerateSocialMediaImage(c.Context(), &req)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate image",
		})
	}

	response := fiber.Map{
		"success": result.Success,
		"image":   gen,
	}
	if result.Success {
		response["generation_details"] = result
	} else {
		response["error"] = result.Error
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
