// Package jsonfile provides a file-per-book story.Store. Each book lives in
// its own JSON file named <sanitized-title>_<id>.json under the store
// directory, so the directory stays human-browsable.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fablehq/fable/pkg/story"
)

// invalidFilenameChars matches characters that cannot appear in filenames on
// common filesystems.
var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

const maxTitleInFilename = 50

// Store implements story.Store on a directory of JSON files.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New returns a Store rooted at dir, creating the directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating books directory %s: %w", dir, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Create(ctx context.Context, title string) (*story.Book, error) {
	book := story.NewBook(title)
	if err := s.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Store) Get(_ context.Context, id string) (*story.Book, error) {
	path, err := s.findFile(id)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, story.ErrNotFound{ID: id}
	}

	return s.load(path, id)
}

func (s *Store) Save(_ context.Context, book *story.Book) error {
	if book == nil {
		return errors.New("cannot save nil book")
	}

	book.UpdatedAt = time.Now().UTC()
	book.NumPages = len(book.Pages)

	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling book %s: %w", book.ID, err)
	}

	// A title change moves the book to a new filename. Find any existing
	// file for this ID first so we can rename instead of leaving both.
	oldPath, err := s.findFile(book.ID)
	if err != nil {
		return err
	}

	newPath := filepath.Join(s.dir, s.filename(book))
	if oldPath != "" && oldPath != newPath {
		if err := os.Rename(oldPath, newPath); err != nil {
			s.logger.Warn("could not rename book file",
				"from", oldPath,
				"to", newPath,
				"error", err)
			newPath = oldPath
		}
	}

	// Write to a temp file and rename for atomicity.
	tmp, err := os.CreateTemp(s.dir, ".book-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing book %s: %w", book.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), newPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing book file: %w", err)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]*story.Book, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	books := make([]*story.Book, 0, len(paths))
	for _, path := range paths {
		id := idFromFilename(path)
		if id == "" {
			continue
		}

		book, err := s.load(path, id)
		if err != nil {
			// Skip unreadable files rather than failing the whole listing.
			s.logger.Warn("could not load book", "path", path, "error", err)
			continue
		}

		books = append(books, book)
	}

	return books, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	path, err := s.findFile(id)
	if err != nil {
		return err
	}
	if path == "" {
		return story.ErrNotFound{ID: id}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	}

	return nil
}

func (s *Store) Close() error {
	return nil
}

// load reads and parses a book file, forcing the ID to match the filename.
func (s *Store) load(path, id string) (*story.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, story.ErrNotFound{ID: id}
		}
		return nil, fmt.Errorf("reading book %s: %w", id, err)
	}

	book := &story.Book{}
	if err := json.Unmarshal(data, book); err != nil {
		return nil, fmt.Errorf("parsing book %s: %w", id, err)
	}

	// The filename is authoritative for the ID.
	book.ID = id

	return book, nil
}

// findFile locates the file for a book ID by its _<id>.json suffix.
// Returns an empty path when no file matches.
func (s *Store) findFile(id string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*_*.json"))
	if err != nil {
		return "", fmt.Errorf("scanning books directory: %w", err)
	}

	suffix := "_" + id + ".json"
	for _, path := range paths {
		if strings.HasSuffix(filepath.Base(path), suffix) {
			return path, nil
		}
	}

	return "", nil
}

// filename derives the on-disk name for a book from its title and ID.
func (s *Store) filename(book *story.Book) string {
	return sanitizeTitle(book.Title) + "_" + book.ID + ".json"
}

// sanitizeTitle converts a book title to a safe filename fragment.
func sanitizeTitle(title string) string {
	safe := invalidFilenameChars.ReplaceAllString(title, "_")
	safe = strings.TrimSpace(safe)
	if len(safe) > maxTitleInFilename {
		safe = safe[:maxTitleInFilename]
	}
	return safe
}

// idFromFilename extracts the book ID from a title_id.json path.
func idFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".json")
	idx := strings.LastIndex(base, "_")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return base[idx+1:]
}
