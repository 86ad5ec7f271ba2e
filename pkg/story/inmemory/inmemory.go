// Package inmemory provides a map-backed story.Store for tests and
// ephemeral sessions.
package inmemory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/fablehq/fable/pkg/story"
)

// Store implements story.Store with an in-process map.
type Store struct {
	mu    sync.RWMutex
	books map[string]*story.Book
}

func New() *Store {
	return &Store{
		books: make(map[string]*story.Book),
	}
}

func (s *Store) Create(ctx context.Context, title string) (*story.Book, error) {
	book := story.NewBook(title)
	if err := s.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Store) Get(_ context.Context, id string) (*story.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return nil, story.ErrNotFound{ID: id}
	}

	return clone(book)
}

func (s *Store) Save(_ context.Context, book *story.Book) error {
	if book == nil {
		return errors.New("cannot save nil book")
	}

	book.UpdatedAt = time.Now().UTC()
	book.NumPages = len(book.Pages)

	stored, err := clone(book)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = stored

	return nil
}

func (s *Store) List(_ context.Context) ([]*story.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*story.Book, 0, len(s.books))
	for _, book := range s.books {
		copied, err := clone(book)
		if err != nil {
			return nil, err
		}
		books = append(books, copied)
	}

	return books, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return story.ErrNotFound{ID: id}
	}

	delete(s.books, id)
	return nil
}

func (s *Store) Close() error {
	return nil
}

// clone deep-copies a book through JSON so callers never share mutable state
// with the store.
func clone(book *story.Book) (*story.Book, error) {
	data, err := json.Marshal(book)
	if err != nil {
		return nil, err
	}

	copied := &story.Book{}
	if err := json.Unmarshal(data, copied); err != nil {
		return nil, err
	}

	return copied, nil
}
