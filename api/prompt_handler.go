package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fablehq/fable/pkg/prompt"
)

// handleGetPrompt returns the system prompt for a mode ("story" or "chat").
func (s *Server) handleGetPrompt(c *fiber.Ctx) error {
	mode := prompt.Mode(c.Params("mode"))

	text, err := s.prompts.Get(c.Context(), mode)
	if err != nil {
		if errors.Is(err, prompt.ErrUnknownMode) {
			return fail(c, fiber.StatusNotFound, "unknown prompt mode")
		}
		s.logger.Error("loading prompt failed", "mode", mode, "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load prompt")
	}

	return c.JSON(fiber.Map{"mode": mode, "prompt": text})
}

// handleSetPrompt replaces the system prompt for a mode.
func (s *Server) handleSetPrompt(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	mode := prompt.Mode(c.Params("mode"))
	if err := s.prompts.Set(c.Context(), mode, req.Prompt); err != nil {
		if errors.Is(err, prompt.ErrUnknownMode) {
			return fail(c, fiber.StatusNotFound, "unknown prompt mode")
		}
		s.logger.Error("saving prompt failed", "mode", mode, "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to save prompt")
	}

	return c.JSON(fiber.Map{"mode": mode, "prompt": req.Prompt})
}
