package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fablehq/fable/pkg/agent"
	"github.com/fablehq/fable/pkg/llm"
	"github.com/fablehq/fable/pkg/llm/provider"
	"github.com/fablehq/fable/pkg/persona"
	"github.com/fablehq/fable/pkg/prompt"
)

// personaRequest is the create/update payload for a persona. Update treats
// absent fields as "leave unchanged".
type personaRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

// handleListPersonas returns every stored persona.
func (s *Server) handleListPersonas(c *fiber.Ctx) error {
	personas, err := s.personas.ListPersonas(c.Context())
	if err != nil {
		s.logger.Error("listing personas failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to list personas")
	}

	return c.JSON(personas)
}

// handleCreatePersona creates a persona from the request payload.
func (s *Server) handleCreatePersona(c *fiber.Ctx) error {
	var req personaRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return fail(c, fiber.StatusBadRequest, "name is required")
	}

	var description string
	if req.Description != nil {
		description = *req.Description
	}

	p, err := s.personas.CreatePersona(c.Context(), *req.Name, description, req.Traits)
	if err != nil {
		s.logger.Error("creating persona failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to create persona")
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

// handleGetPersona returns one persona by ID.
func (s *Server) handleGetPersona(c *fiber.Ctx) error {
	p, err := s.personas.GetPersona(c.Context(), c.Params("id"))
	if err != nil {
		var notFound persona.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "persona not found")
		}
		s.logger.Error("loading persona failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load persona")
	}

	return c.JSON(p)
}

// handleUpdatePersona applies a partial update to a persona.
func (s *Server) handleUpdatePersona(c *fiber.Ctx) error {
	var req personaRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	p, err := s.personas.UpdatePersona(c.Context(), c.Params("id"), req.Name, req.Description, req.Traits)
	if err != nil {
		var notFound persona.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "persona not found")
		}
		s.logger.Error("updating persona failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to update persona")
	}

	return c.JSON(p)
}

// handleDeletePersona removes a persona.
func (s *Server) handleDeletePersona(c *fiber.Ctx) error {
	if err := s.personas.DeletePersona(c.Context(), c.Params("id")); err != nil {
		var notFound persona.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "persona not found")
		}
		s.logger.Error("deleting persona failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to delete persona")
	}

	return c.JSON(fiber.Map{"detail": "Persona deleted"})
}

// handleCreateConversation opens a new conversation with a persona.
func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	conv, err := s.personas.CreateConversation(c.Context(), c.Params("id"))
	if err != nil {
		var notFound persona.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "persona not found")
		}
		s.logger.Error("creating conversation failed", "persona_id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to create conversation")
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// handleGetConversation returns a conversation with its message log.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	conv, err := s.personas.GetConversation(c.Context(), c.Params("id"))
	if err != nil {
		var notFound persona.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "conversation not found")
		}
		s.logger.Error("loading conversation failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load conversation")
	}

	return c.JSON(conv)
}

// conversationMessageRequest appends a user message to a conversation.
type conversationMessageRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// handleConversationMessage appends the user's message, generates the
// persona's reply with the full conversation history, and returns it.
func (s *Server) handleConversationMessage(c *fiber.Ctx) error {
	var req conversationMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return fail(c, fiber.StatusBadRequest, "text is required")
	}

	ctx := c.Context()

	conv, err := s.personas.GetConversation(ctx, c.Params("id"))
	if err != nil {
		var notFound persona.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "conversation not found")
		}
		s.logger.Error("loading conversation failed", "id", c.Params("id"), "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load conversation")
	}

	p, err := s.personas.GetPersona(ctx, conv.PersonaID)
	if err != nil {
		return fail(c, fiber.StatusNotFound, "persona not found")
	}

	a, err := s.chatAgent(c, req.ModelID, p)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	history := make([]llm.Message, 0, len(conv.Messages)+1)
	for _, msg := range conv.Messages {
		role := llm.RoleUser
		if msg.Sender != "user" {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: msg.Text})
	}
	history = append(history, llm.NewUserMessage(req.Text))

	reply, err := a.CompleteHistory(ctx, history)
	if err != nil {
		s.logger.Error("persona reply failed", "conversation_id", conv.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "LLM generation failed")
	}

	conv.AddMessage("user", req.Text)
	conv.AddMessage("persona", reply)
	if err := s.personas.SaveConversation(ctx, conv); err != nil {
		s.logger.Error("saving conversation failed", "conversation_id", conv.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to save conversation")
	}

	return c.JSON(fiber.Map{
		"conversation_id": conv.ID,
		"reply":           reply,
		"updated_at":      time.Now().UTC(),
	})
}

// chatAgent builds an Agent carrying the chat system prompt specialized with
// the persona's name, description and traits.
func (s *Server) chatAgent(c *fiber.Ctx, modelID string, p *persona.Persona) (*agent.Agent, error) {
	model := s.models.Default()
	if modelID != "" {
		m, ok := s.models.Get(modelID)
		if !ok {
			return nil, errors.New("unknown model: " + modelID)
		}
		model = m
	}

	prov, err := provider.ForName(model.Provider)
	if err != nil {
		return nil, err
	}

	system, err := s.prompts.Get(c.Context(), prompt.ModeChat)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\nYou are playing the persona \"" + p.Name + "\".")
	if p.Description != "" {
		b.WriteString(" " + p.Description)
	}
	if len(p.Traits) > 0 {
		b.WriteString("\nTraits: " + strings.Join(p.Traits, ", ") + ".")
	}
	if model.PromptModifier != "" {
		b.WriteString("\n" + model.PromptModifier)
	}

	client := llm.NewClient(prov, s.config.Upstream, llm.WithAPIKey(s.config.APIKey))

	return agent.New(client, model.ModelName,
		agent.WithSystemPrompt(b.String()),
		agent.WithTemperature(model.Temperature),
		agent.WithLogger(s.logger),
	), nil
}
