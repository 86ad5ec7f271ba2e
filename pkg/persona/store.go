package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store persists personas and conversations as JSON files under a data
// directory, one file per record.
type Store struct {
	personaDir string
	convDir    string
	logger     *slog.Logger
}

// NewStore returns a Store rooted at dataDir, creating the personas/ and
// conversations/ subdirectories if needed.
func NewStore(dataDir string, logger *slog.Logger) (*Store, error) {
	personaDir := filepath.Join(dataDir, "personas")
	convDir := filepath.Join(dataDir, "conversations")

	for _, dir := range []string{personaDir, convDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		personaDir: personaDir,
		convDir:    convDir,
		logger:     logger,
	}, nil
}

// CreatePersona persists a new persona and returns it.
func (s *Store) CreatePersona(_ context.Context, name, description string, traits []string) (*Persona, error) {
	p := NewPersona(name, description, traits)
	if err := s.saveJSON(filepath.Join(s.personaDir, p.ID+".json"), p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPersona retrieves a persona by ID.
func (s *Store) GetPersona(_ context.Context, id string) (*Persona, error) {
	p := &Persona{}
	ok, err := s.loadJSON(filepath.Join(s.personaDir, id+".json"), p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound{Kind: "persona", ID: id}
	}
	return p, nil
}

// UpdatePersona applies non-nil fields to a stored persona and saves it.
func (s *Store) UpdatePersona(ctx context.Context, id string, name, description *string, traits []string) (*Persona, error) {
	p, err := s.GetPersona(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	if traits != nil {
		p.Traits = traits
	}

	if err := s.saveJSON(filepath.Join(s.personaDir, p.ID+".json"), p); err != nil {
		return nil, err
	}

	return p, nil
}

// ListPersonas returns all stored personas, skipping unreadable files.
func (s *Store) ListPersonas(_ context.Context) ([]*Persona, error) {
	paths, err := filepath.Glob(filepath.Join(s.personaDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing personas: %w", err)
	}

	personas := make([]*Persona, 0, len(paths))
	for _, path := range paths {
		p := &Persona{}
		ok, err := s.loadJSON(path, p)
		if err != nil || !ok {
			if err != nil {
				s.logger.Warn("could not load persona", "path", path, "error", err)
			}
			continue
		}
		personas = append(personas, p)
	}

	return personas, nil
}

// DeletePersona removes a persona by ID.
func (s *Store) DeletePersona(_ context.Context, id string) error {
	path := filepath.Join(s.personaDir, id+".json")
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound{Kind: "persona", ID: id}
		}
		return fmt.Errorf("deleting persona %s: %w", id, err)
	}
	return nil
}

// CreateConversation persists a new empty conversation for a persona.
func (s *Store) CreateConversation(ctx context.Context, personaID string) (*Conversation, error) {
	if _, err := s.GetPersona(ctx, personaID); err != nil {
		return nil, err
	}

	c := NewConversation(personaID)
	if err := s.saveJSON(filepath.Join(s.convDir, c.ID+".json"), c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversation retrieves a conversation by ID.
func (s *Store) GetConversation(_ context.Context, id string) (*Conversation, error) {
	c := &Conversation{}
	ok, err := s.loadJSON(filepath.Join(s.convDir, id+".json"), c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound{Kind: "conversation", ID: id}
	}
	return c, nil
}

// SaveConversation persists the current state of a conversation.
func (s *Store) SaveConversation(_ context.Context, c *Conversation) error {
	if c == nil {
		return errors.New("cannot save nil conversation")
	}
	return s.saveJSON(filepath.Join(s.convDir, c.ID+".json"), c)
}

// saveJSON writes a record to a temp file and renames it into place.
func (s *Store) saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}

// loadJSON reads a record, returning ok=false when the file doesn't exist.
// A corrupt file is moved aside to .bak and treated as missing.
func (s *Store) loadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		bak := strings.TrimSuffix(path, ".json") + ".bak"
		if renameErr := os.Rename(path, bak); renameErr != nil {
			s.logger.Warn("could not move corrupt file aside", "path", path, "error", renameErr)
		} else {
			s.logger.Warn("moved corrupt file aside", "path", path, "bak", bak)
		}
		return false, nil
	}

	return true, nil
}
