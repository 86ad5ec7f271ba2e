package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/fablehq/fable/pkg/eventstream"
	"github.com/fablehq/fable/pkg/models"
	"github.com/fablehq/fable/pkg/persona"
	"github.com/fablehq/fable/pkg/prompt"
	"github.com/fablehq/fable/pkg/story"
)

// Server is the API server for generating and managing narrative content.
type Server struct {
	config    Config
	books     story.Store
	personas  *persona.Store
	prompts   *prompt.Store
	models    *models.Manager
	publisher eventstream.Publisher
	logger    *slog.Logger
	app       *fiber.App
}

// Stores groups the persistence dependencies injected into the server so
// they can be shared with other components (e.g., the CLI when embedded).
type Stores struct {
	Books     story.Store
	Personas  *persona.Store
	Prompts   *prompt.Store
	Models    *models.Manager
	Publisher eventstream.Publisher
}

// NewServer creates a new API server.
func NewServer(config Config, stores Stores, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		books:     stores.Books,
		personas:  stores.Personas,
		prompts:   stores.Prompts,
		models:    stores.Models,
		publisher: stores.Publisher,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/api/chat", s.handleChat)
	app.Post("/api/chat/stream", s.handleChatStream)

	app.Get("/api/books", s.handleListBooks)
	app.Get("/api/books/:id", s.handleGetBook)
	app.Delete("/api/books/:id", s.handleDeleteBook)
	app.Get("/api/books/:id/summary", s.handleGetBookSummary)
	app.Get("/api/books/:id/pages", s.handleGetBookPages)

	app.Get("/api/personas", s.handleListPersonas)
	app.Post("/api/personas", s.handleCreatePersona)
	app.Get("/api/personas/:id", s.handleGetPersona)
	app.Put("/api/personas/:id", s.handleUpdatePersona)
	app.Delete("/api/personas/:id", s.handleDeletePersona)
	app.Post("/api/personas/:id/conversations", s.handleCreateConversation)
	app.Get("/api/conversations/:id", s.handleGetConversation)
	app.Post("/api/conversations/:id/messages", s.handleConversationMessage)

	app.Get("/api/prompts/:mode", s.handleGetPrompt)
	app.Put("/api/prompts/:mode", s.handleSetPrompt)

	app.Get("/api/models", s.handleListModels)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
