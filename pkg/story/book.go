// Package story holds the book document model and the Store interface for
// persisting books. Storage backends live in subpackages (jsonfile, inmemory,
// sqlite).
package story

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Page is a single generated page of a book together with the reader choices
// it offered and the inputs that produced it.
type Page struct {
	Text       string   `json:"text"`
	Choices    []string `json:"choices"`
	Prompt     string   `json:"prompt,omitempty"`
	ChoiceUsed string   `json:"choice_used,omitempty"`
}

// Character is a tracked character introduced somewhere in the narrative.
type Character struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Role            string    `json:"role"`
	FirstAppearance int       `json:"first_appearance"`
	AddedAt         time.Time `json:"added_at"`
}

// KeyEvent is a notable plot event anchored to a page number.
type KeyEvent struct {
	Event      string    `json:"event"`
	PageNumber int       `json:"page_number"`
	Category   string    `json:"category"`
	AddedAt    time.Time `json:"added_at"`
}

// TimelineEntry anchors an in-story moment to the page where it happened.
type TimelineEntry struct {
	Entry         string    `json:"entry"`
	PageNumber    int       `json:"page_number"`
	TimeReference string    `json:"time_reference,omitempty"`
	AddedAt       time.Time `json:"added_at"`
}

// Book is the complete persisted state of one interactive story.
type Book struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Characters  []Character     `json:"characters,omitempty"`
	KeyEvents   []KeyEvent      `json:"key_events,omitempty"`
	Timeline    []TimelineEntry `json:"timeline,omitempty"`
	Pages       []Page          `json:"pages"`
	NumPages    int             `json:"num_pages"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CoverURL    string          `json:"cover_url,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Settings    map[string]any  `json:"settings,omitempty"`
}

// NewBook returns a fresh book with a generated ID. An empty title gets the
// untitled placeholder derived from the ID.
func NewBook(title string) *Book {
	id := uuid.NewString()
	if title == "" {
		title = fmt.Sprintf("Untitled Book (%s)", id[:8])
	}

	now := time.Now().UTC()
	return &Book{
		ID:        id,
		Title:     title,
		Pages:     []Page{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddPage appends a page and refreshes the page count.
func (b *Book) AddPage(p Page) {
	if p.Choices == nil {
		p.Choices = []string{}
	}
	b.Pages = append(b.Pages, p)
	b.NumPages = len(b.Pages)
}

// ReplaceLastPage overwrites the most recent page. If the book has no pages
// yet it falls back to appending.
func (b *Book) ReplaceLastPage(p Page) {
	if len(b.Pages) == 0 {
		b.AddPage(p)
		return
	}
	if p.Choices == nil {
		p.Choices = []string{}
	}
	b.Pages[len(b.Pages)-1] = p
}

// CurrentChoices returns the choices offered by the latest page, or nil when
// the book is empty.
func (b *Book) CurrentChoices() []string {
	if len(b.Pages) == 0 {
		return nil
	}
	return b.Pages[len(b.Pages)-1].Choices
}

// PageTexts returns just the text content of all pages in order.
func (b *Book) PageTexts() []string {
	texts := make([]string, 0, len(b.Pages))
	for _, p := range b.Pages {
		texts = append(texts, p.Text)
	}
	return texts
}

// AddCharacter records a character first appearing at the current page count.
func (b *Book) AddCharacter(name, description, role string) {
	if role == "" {
		role = "character"
	}
	b.Characters = append(b.Characters, Character{
		Name:            name,
		Description:     description,
		Role:            role,
		FirstAppearance: b.NumPages,
		AddedAt:         time.Now().UTC(),
	})
}

// AddKeyEvent records a notable plot event.
func (b *Book) AddKeyEvent(event string, pageNumber int, category string) {
	if category == "" {
		category = "plot"
	}
	b.KeyEvents = append(b.KeyEvents, KeyEvent{
		Event:      event,
		PageNumber: pageNumber,
		Category:   category,
		AddedAt:    time.Now().UTC(),
	})
}

// AddTimelineEntry records an in-story moment against a page number.
func (b *Book) AddTimelineEntry(entry string, pageNumber int, timeReference string) {
	b.Timeline = append(b.Timeline, TimelineEntry{
		Entry:         entry,
		PageNumber:    pageNumber,
		TimeReference: timeReference,
		AddedAt:       time.Now().UTC(),
	})
}

// UpdateSetting sets a free-form story setting key.
func (b *Book) UpdateSetting(key string, value any) {
	if b.Settings == nil {
		b.Settings = map[string]any{}
	}
	b.Settings[key] = value
}
