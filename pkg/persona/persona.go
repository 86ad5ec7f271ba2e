// Package persona holds chat personas and their conversations. Both are
// persisted as one JSON file per record under the store directory, with
// corrupt files moved aside to .bak so a session can always start fresh.
package persona

import (
	"time"

	"github.com/google/uuid"
)

// Persona is a named character the reader can chat with outside a book.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Traits      []string `json:"traits"`
}

// NewPersona returns a persona with a generated ID.
func NewPersona(name, description string, traits []string) *Persona {
	if traits == nil {
		traits = []string{}
	}

	return &Persona{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Traits:      traits,
	}
}

// ChatMessage is one turn in a persona conversation.
type ChatMessage struct {
	Sender string `json:"sender"` // "user" or "persona"
	Text   string `json:"text"`
}

// Conversation is a persisted exchange between the reader and a persona.
type Conversation struct {
	ID        string        `json:"id"`
	PersonaID string        `json:"persona_id"`
	Messages  []ChatMessage `json:"messages"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewConversation returns an empty conversation bound to a persona.
func NewConversation(personaID string) *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		PersonaID: personaID,
		Messages:  []ChatMessage{},
		UpdatedAt: time.Now().UTC(),
	}
}

// AddMessage appends a turn and bumps the timestamp.
func (c *Conversation) AddMessage(sender, text string) {
	c.Messages = append(c.Messages, ChatMessage{Sender: sender, Text: text})
	c.UpdatedAt = time.Now().UTC()
}
