package api

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON error payload returned on failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// fail writes an ErrorResponse with the given status.
func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}
