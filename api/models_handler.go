package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// handleListModels returns the model catalog, optionally filtered by
// content_level and a comma-separated tags query parameter.
func (s *Server) handleListModels(c *fiber.Ctx) error {
	contentLevel := c.Query("content_level")

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	list := s.models.All()
	if contentLevel != "" || len(tags) > 0 {
		list = s.models.Filter(contentLevel, tags)
	}

	return c.JSON(fiber.Map{
		"models":  list,
		"default": s.models.Default().ID,
	})
}
