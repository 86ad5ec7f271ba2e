package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypePagePersisted is emitted after a generated page is persisted.
	EventTypePagePersisted = "fable.page.persisted"
)

// PagePersistedEvent is a transport-neutral event payload for a persisted page.
type PagePersistedEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	EventID       string         `json:"event_id"`
	EmittedAt     time.Time      `json:"emitted_at"`
	Source        EventSource    `json:"source"`
	Generation    GenerationMeta `json:"generation"`
	Book          BookMeta       `json:"book"`
	Page          PagePayload    `json:"page"`
}

// EventSource identifies the upstream that produced the page.
type EventSource struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// GenerationMeta captures generation lifecycle metadata for the event.
type GenerationMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	Retries     int       `json:"retries,omitempty"`
}

// BookMeta locates the page within its book.
type BookMeta struct {
	BookID     string `json:"book_id"`
	Title      string `json:"title,omitempty"`
	PageNumber int    `json:"page_number"`
}

// PagePayload carries the persisted page content.
type PagePayload struct {
	Text       string   `json:"text"`
	Choices    []string `json:"choices"`
	ChoiceUsed string   `json:"choice_used,omitempty"`
}
