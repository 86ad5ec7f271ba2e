package agent

import (
	"context"
	"fmt"
	"strings"
)

// maxChoices caps the reader choices offered per page.
const maxChoices = 3

// PageDraft is the JSON payload the model produces for one story page.
type PageDraft struct {
	Page          string   `json:"page"`
	Choices       []string `json:"choices"`
	SummaryUpdate string   `json:"summary_update"`
	ImagePrompt   string   `json:"image_prompt"`
}

// PageInstructions is appended to the story system prompt for non-streaming
// page generation, constraining the model to the PageDraft JSON shape.
const PageInstructions = "Respond strictly in valid JSON with the following keys:\n" +
	"page: the next ~300-400 word page of the book.\n" +
	"choices: an array of exactly 3 short distinct reader choices.\n" +
	"summary_update: a concise bullet list of new characters or key events in this page.\n" +
	"image_prompt: a vivid, concise description to illustrate the current page.\n" +
	"IMPORTANT: within JSON string values, escape newlines as \\n instead of raw line breaks.\n" +
	"Do NOT wrap the JSON in markdown code fences and do not add any additional keys."

// PagePrompt builds the user prompt for the next page: the running book
// summary plus either an opening instruction or the reader's choice.
func PagePrompt(summary, choice string) string {
	var b strings.Builder

	if s := strings.TrimSpace(summary); s != "" {
		fmt.Fprintf(&b, "Book summary so far:\n%s\n", s)
	}

	if choice == "" {
		b.WriteString("Let's begin the story. Generate the first page.")
	} else {
		fmt.Fprintf(&b, "Continue the story following the reader's choice: '%s'.", choice)
	}

	return b.String()
}

// GeneratePage produces the next page draft for a book. An empty choice
// starts the story from the beginning.
func (a *Agent) GeneratePage(ctx context.Context, summary, choice string) (*PageDraft, error) {
	draft := &PageDraft{}
	if err := a.CompleteJSON(ctx, PagePrompt(summary, choice), draft); err != nil {
		return nil, fmt.Errorf("generating page: %w", err)
	}

	if draft.Choices == nil {
		draft.Choices = []string{}
	}
	if len(draft.Choices) > maxChoices {
		draft.Choices = draft.Choices[:maxChoices]
	}

	return draft, nil
}

// GenerateChoices asks for reader choices for an already-written page. The
// streaming path uses this: page prose arrives as free text, so the choices
// need a second, structured call.
func (a *Agent) GenerateChoices(ctx context.Context, pageText string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Here is the latest page of the book:\n%s\n\n"+
			"Respond strictly in valid JSON as {\"choices\": [...]} with exactly 3 short "+
			"distinct reader choices. No other keys, no markdown fences.",
		pageText,
	)

	var payload struct {
		Choices []string `json:"choices"`
	}
	if err := a.CompleteJSON(ctx, prompt, &payload); err != nil {
		return nil, fmt.Errorf("generating choices: %w", err)
	}

	if len(payload.Choices) > maxChoices {
		payload.Choices = payload.Choices[:maxChoices]
	}

	return payload.Choices, nil
}
