package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fablehq/fable/pkg/agent"
	"github.com/fablehq/fable/pkg/eventstream"
	"github.com/fablehq/fable/pkg/llm"
	"github.com/fablehq/fable/pkg/llm/provider"
	"github.com/fablehq/fable/pkg/models"
	"github.com/fablehq/fable/pkg/prompt"
	"github.com/fablehq/fable/pkg/sse"
	"github.com/fablehq/fable/pkg/story"
	"github.com/fablehq/fable/pkg/streamtag"
)

// ChatRequest asks for the next page of a book. An empty BookID starts a new
// book; an empty Choice generates the opening page. ModelID selects a preset
// from the model catalog, defaulting to the catalog's default.
type ChatRequest struct {
	BookID  string `json:"book_id,omitempty"`
	Choice  string `json:"choice,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// ChatResponse carries the generated page for the non-streaming endpoint.
type ChatResponse struct {
	BookID  string   `json:"book_id"`
	Page    string   `json:"page"`
	Choices []string `json:"choices"`
}

// storyAgent builds an Agent for the requested model preset, with the story
// system prompt (plus the preset's modifier, when set) already applied.
func (s *Server) storyAgent(ctx context.Context, modelID string, extraInstructions string) (*agent.Agent, models.ModelConfig, error) {
	model := s.models.Default()
	if modelID != "" {
		m, ok := s.models.Get(modelID)
		if !ok {
			return nil, model, errors.New("unknown model: " + modelID)
		}
		model = m
	}

	prov, err := provider.ForName(model.Provider)
	if err != nil {
		return nil, model, err
	}

	system, err := s.prompts.Get(ctx, prompt.ModeStory)
	if err != nil {
		return nil, model, err
	}
	if model.PromptModifier != "" {
		system += "\n" + model.PromptModifier
	}
	if extraInstructions != "" {
		system += "\n" + extraInstructions
	}

	client := llm.NewClient(prov, s.config.Upstream, llm.WithAPIKey(s.config.APIKey))
	a := agent.New(client, model.ModelName,
		agent.WithSystemPrompt(system),
		agent.WithTemperature(model.Temperature),
		agent.WithLogger(s.logger),
	)

	return a, model, nil
}

// resolveBook loads the requested book, or creates a fresh one when no ID is
// given.
func (s *Server) resolveBook(ctx context.Context, bookID string) (*story.Book, error) {
	if bookID == "" {
		return s.books.Create(ctx, "")
	}
	return s.books.Get(ctx, bookID)
}

// persistPage appends the generated page to the book, folds the summary
// update into the running summary, saves, and publishes a page event.
func (s *Server) persistPage(ctx context.Context, book *story.Book, draft *agent.PageDraft, choice string, model models.ModelConfig, startedAt time.Time, streaming bool) {
	book.AddPage(story.Page{
		Text:       draft.Page,
		Choices:    draft.Choices,
		ChoiceUsed: choice,
	})

	if update := strings.TrimSpace(draft.SummaryUpdate); update != "" {
		if book.Summary != "" {
			book.Summary += "\n"
		}
		book.Summary += update
	}

	if err := s.books.Save(ctx, book); err != nil {
		s.logger.Error("saving book failed", "book_id", book.ID, "error", err)
		return
	}

	s.publishPage(ctx, book, draft, choice, model, startedAt, streaming)
}

// publishPage emits a page-persisted event; failures are logged, never fatal.
func (s *Server) publishPage(ctx context.Context, book *story.Book, draft *agent.PageDraft, choice string, model models.ModelConfig, startedAt time.Time, streaming bool) {
	if s.publisher == nil {
		return
	}

	now := time.Now().UTC()
	event := &eventstream.PagePersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypePagePersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		Source: eventstream.EventSource{
			Provider: model.Provider,
			Model:    model.ModelName,
		},
		Generation: eventstream.GenerationMeta{
			StartedAt:   startedAt,
			CompletedAt: now,
			DurationMs:  now.Sub(startedAt).Milliseconds(),
			Streaming:   streaming,
		},
		Book: eventstream.BookMeta{
			BookID:     book.ID,
			Title:      book.Title,
			PageNumber: book.NumPages,
		},
		Page: eventstream.PagePayload{
			Text:       draft.Page,
			Choices:    draft.Choices,
			ChoiceUsed: choice,
		},
	}

	if err := s.publisher.PublishPage(ctx, event); err != nil {
		s.logger.Warn("publishing page event failed", "book_id", book.ID, "error", err)
	}
}

// handleChat generates the next page in a single blocking call.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.Context()

	book, err := s.resolveBook(ctx, req.BookID)
	if err != nil {
		var notFound story.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "book not found")
		}
		s.logger.Error("resolving book failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load book")
	}

	a, model, err := s.storyAgent(ctx, req.ModelID, agent.PageInstructions)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	startedAt := time.Now().UTC()
	draft, err := a.GeneratePage(ctx, book.Summary, req.Choice)
	if err != nil {
		s.logger.Error("page generation failed", "book_id", book.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "LLM generation failed")
	}

	s.persistPage(ctx, book, draft, req.Choice, model, startedAt, false)

	return c.JSON(ChatResponse{
		BookID:  book.ID,
		Page:    draft.Page,
		Choices: draft.Choices,
	})
}

// handleChatStream generates the next page over SSE. Fragments stream to the
// client as they arrive from the model, classified so thinking-mode content
// and partial delimiter tags never reach the reader. The terminal "done"
// event carries the persisted page and its choices.
func (s *Server) handleChatStream(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	// The streaming goroutine outlives this handler; fasthttp recycles the
	// request context once the handler returns, so the generation runs on a
	// background context.
	ctx := context.Background()

	book, err := s.resolveBook(ctx, req.BookID)
	if err != nil {
		var notFound story.ErrNotFound
		if errors.As(err, &notFound) {
			return fail(c, fiber.StatusNotFound, "book not found")
		}
		s.logger.Error("resolving book failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "failed to load book")
	}

	a, model, err := s.storyAgent(ctx, req.ModelID, "")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	startedAt := time.Now().UTC()
	stream, err := a.Stream(ctx, agent.PagePrompt(book.Summary, req.Choice))
	if err != nil {
		s.logger.Error("opening stream failed", "book_id", book.ID, "error", err)
		return fail(c, fiber.StatusBadGateway, "upstream request failed")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	// io.Pipe instead of SetBodyStreamWriter: pw.Write blocks until fasthttp
	// consumes the data and flushes it to the socket, so each event reaches
	// the client as soon as it is written instead of buffering.
	pr, pw := io.Pipe()
	go s.relayStream(ctx, pw, stream, a, book, req.Choice, model, startedAt)

	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// relayStream pumps model fragments through the classifier and onto the SSE
// pipe, then persists the finished page.
func (s *Server) relayStream(ctx context.Context, pw *io.PipeWriter, stream *llm.Stream, a *agent.Agent, book *story.Book, choice string, model models.ModelConfig, startedAt time.Time) {
	defer pw.Close()
	defer stream.Close()

	out := sse.NewWriter(pw)
	classifier := streamtag.New()

	for {
		if ctx.Err() != nil {
			return
		}

		chunk, err := stream.Next()
		if err != nil {
			s.logger.Error("reading model stream failed", "book_id", book.ID, "error", err)
			s.sendEvent(out, "error", fiber.Map{"error": "upstream stream failed"})
			return
		}
		if chunk == nil {
			break
		}

		if !s.relayEvents(out, classifier.Feed(chunk.Message.Content)) {
			return
		}
	}

	if !s.relayEvents(out, classifier.Flush()) {
		return
	}

	pageText := classifier.Result()

	// The streamed page is free prose; the reader choices come from a second,
	// structured call.
	choices, err := a.GenerateChoices(ctx, pageText)
	if err != nil {
		s.logger.Warn("generating choices failed", "book_id", book.ID, "error", err)
		choices = []string{}
	}

	draft := &agent.PageDraft{Page: pageText, Choices: choices}
	s.persistPage(ctx, book, draft, choice, model, startedAt, true)

	s.sendEvent(out, "done", ChatResponse{
		BookID:  book.ID,
		Page:    pageText,
		Choices: choices,
	})
}

// relayEvents forwards classifier events to the SSE writer. Thinking
// transitions become named "thinking" events; tokens become default message
// events. Returns false when the client is gone.
func (s *Server) relayEvents(out *sse.Writer, events []streamtag.Event) bool {
	for _, ev := range events {
		var err error
		switch ev.Type {
		case streamtag.EventThinking:
			err = s.sendEvent(out, "thinking", fiber.Map{"thinking": ev.Thinking})
		case streamtag.EventToken:
			err = s.sendEvent(out, "", fiber.Map{"token": ev.Text})
		}

		if err != nil {
			return false
		}
	}

	return true
}

// sendEvent JSON-encodes the payload and writes it as an SSE event. An empty
// eventType produces a default message event.
func (s *Server) sendEvent(out *sse.Writer, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if eventType == "" {
		return out.SendData(string(data))
	}

	return out.SendEvent(eventType, string(data))
}
