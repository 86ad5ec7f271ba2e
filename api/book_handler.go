package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fablehq/fable/pkg/story"
)

// BookInfo is the list-view projection of a book.
type BookInfo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	NumPages    int       `json:"num_pages"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// handleListBooks returns the list-view projection of every stored book.
func (s *Server) handleListBooks(c *fiber.Ctx) error {
	books, err := s.books.List(c.Context())
	if err != nil {
		s.logger.Error("listing books failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to list books")
	}

	infos := make([]BookInfo, 0, len(books))
	for _, b := range books {
		infos = append(infos, BookInfo{
			ID:          b.ID,
			Title:       b.Title,
			Description: b.Description,
			NumPages:    b.NumPages,
			CoverURL:    b.CoverURL,
			Tags:        b.Tags,
			CreatedAt:   b.CreatedAt,
			UpdatedAt:   b.UpdatedAt,
		})
	}

	return c.JSON(infos)
}

// handleGetBook returns the full book document.
func (s *Server) handleGetBook(c *fiber.Ctx) error {
	book, err := s.books.Get(c.Context(), c.Params("id"))
	if err != nil {
		var notFound story.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "book not found")
		}
		s.logger.Error("loading book failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load book")
	}

	return c.JSON(book)
}

// handleDeleteBook removes a book.
func (s *Server) handleDeleteBook(c *fiber.Ctx) error {
	if err := s.books.Delete(c.Context(), c.Params("id")); err != nil {
		var notFound story.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "book not found")
		}
		s.logger.Error("deleting book failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to delete book")
	}

	return c.JSON(fiber.Map{"detail": "Book deleted"})
}

// handleGetBookSummary returns the running story summary for a book.
func (s *Server) handleGetBookSummary(c *fiber.Ctx) error {
	book, err := s.books.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "book not found")
	}

	if book.Summary == "" {
		return fail(c, fiber.StatusNotFound, "summary not found")
	}

	return c.JSON(fiber.Map{"summary": book.Summary})
}

// handleGetBookPages returns the page texts of a book in order.
func (s *Server) handleGetBookPages(c *fiber.Ctx) error {
	book, err := s.books.Get(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "book not found")
	}

	return c.JSON(fiber.Map{"pages": book.PageTexts()})
}
