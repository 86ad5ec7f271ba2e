// Package prompt manages the system prompt files used for story generation
// and persona chat. Prompts live as markdown files on disk so operators can
// edit them without redeploying; an fsnotify watcher invalidates the
// in-process cache when a file changes.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Mode selects which system prompt a caller wants.
type Mode string

const (
	// ModeStory is the choose-your-own-adventure narrator prompt.
	ModeStory Mode = "story"

	// ModeChat is the persona dialogue prompt.
	ModeChat Mode = "chat"
)

// Seeded defaults written on first start when no prompt file exists.
const (
	defaultStoryPrompt = "You are a creative writer helping the user craft a choose-your-own-adventure book."
	defaultChatPrompt  = "You are an AI persona engaging in helpful dialogue."
)

const promptFile = "system.md"

// ErrUnknownMode is returned for modes other than story and chat.
var ErrUnknownMode = errors.New("unknown prompt mode")

// Store reads and writes mode-scoped system prompts with a cache that is
// invalidated by filesystem events.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[Mode]string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore returns a Store rooted at dataDir. Missing or empty prompt files
// are seeded with the defaults. The returned store watches the prompt files
// for outside edits until Close is called.
func NewStore(dataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		dir:    dataDir,
		logger: logger,
		cache:  make(map[Mode]string),
		done:   make(chan struct{}),
	}

	seeds := map[Mode]string{
		ModeStory: defaultStoryPrompt,
		ModeChat:  defaultChatPrompt,
	}
	for mode, seed := range seeds {
		if err := s.seed(mode, seed); err != nil {
			return nil, err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating prompt watcher: %w", err)
	}
	s.watcher = watcher

	for mode := range seeds {
		if err := watcher.Add(filepath.Dir(s.path(mode))); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watching prompt dir for %s: %w", mode, err)
		}
	}

	go s.watch()

	return s, nil
}

// Get returns the system prompt for a mode, reading from cache when the file
// hasn't changed since the last read.
func (s *Store) Get(_ context.Context, mode Mode) (string, error) {
	if err := validMode(mode); err != nil {
		return "", err
	}

	s.mu.RLock()
	cached, ok := s.cache[mode]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := os.ReadFile(s.path(mode))
	if err != nil {
		return "", fmt.Errorf("reading %s prompt: %w", mode, err)
	}

	text := string(data)

	s.mu.Lock()
	s.cache[mode] = text
	s.mu.Unlock()

	return text, nil
}

// Set overwrites the system prompt for a mode and updates the cache.
func (s *Store) Set(_ context.Context, mode Mode, content string) error {
	if err := validMode(mode); err != nil {
		return err
	}

	if err := os.WriteFile(s.path(mode), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s prompt: %w", mode, err)
	}

	s.mu.Lock()
	s.cache[mode] = content
	s.mu.Unlock()

	return nil
}

// Close stops the filesystem watcher.
func (s *Store) Close() error {
	close(s.done)
	return s.watcher.Close()
}

// path returns the prompt file location for a mode, e.g.
// <dataDir>/story/prompts/system.md.
func (s *Store) path(mode Mode) string {
	return filepath.Join(s.dir, string(mode), "prompts", promptFile)
}

// seed creates the prompt file with its default when missing or empty.
func (s *Store) seed(mode Mode, defaultText string) error {
	path := s.path(mode)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating prompt dir for %s: %w", mode, err)
	}

	info, err := os.Stat(path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s prompt: %w", mode, err)
	}

	if err := os.WriteFile(path, []byte(defaultText), 0o644); err != nil {
		return fmt.Errorf("seeding %s prompt: %w", mode, err)
	}

	return nil
}

// watch drops cache entries whenever a prompt file is modified on disk.
func (s *Store) watch() {
	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			if filepath.Base(event.Name) != promptFile {
				continue
			}

			s.invalidate(event.Name)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("prompt watcher error", "error", err)
		}
	}
}

// invalidate clears the cache entry whose file matches the changed path.
func (s *Store) invalidate(changed string) {
	for _, mode := range []Mode{ModeStory, ModeChat} {
		if filepath.Clean(changed) != filepath.Clean(s.path(mode)) {
			continue
		}

		s.mu.Lock()
		delete(s.cache, mode)
		s.mu.Unlock()

		s.logger.Debug("prompt cache invalidated", "mode", mode)
	}
}

func validMode(mode Mode) error {
	switch mode {
	case ModeStory, ModeChat:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
