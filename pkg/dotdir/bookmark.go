package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	bookmarkFile = "bookmark.json"
)

// BookmarkState represents the persisted reading position: which book the
// reader last interacted with and the choice they most recently took.
type BookmarkState struct {
	// BookID is the identifier of the bookmarked book.
	BookID string `json:"book_id"`

	// LastChoice is the reader choice that produced the latest page,
	// if any.
	LastChoice string `json:"last_choice,omitempty"`
}

// LoadBookmark loads the bookmark state from a target .fable/bookmark.json.
// Returns nil, nil if no bookmark exists (a fresh session starts a new book).
// If overrideDir is non-empty, it is used instead of the default ~/.fable/ location.
func (m *Manager) LoadBookmark(overrideDir string) (*BookmarkState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, bookmarkFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading bookmark: %w", err)
	}

	state := &BookmarkState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing bookmark: %w", err)
	}

	return state, nil
}

// SaveBookmark persists the bookmark state to a target .fable/bookmark.json.
func (m *Manager) SaveBookmark(state *BookmarkState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil bookmark state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling bookmark: %w", err)
	}

	path := filepath.Join(dir, bookmarkFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}

	return nil
}

// ClearBookmark removes the bookmark file so the next chat session starts a
// new book. Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearBookmark(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, bookmarkFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing bookmark: %w", err)
	}

	return nil
}
