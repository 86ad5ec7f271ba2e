package story

import "context"

// Store defines the interface for persisting and retrieving books in a
// storage backend.
type Store interface {
	// Create persists a new book with the given title (empty for untitled)
	// and returns it.
	Create(ctx context.Context, title string) (*Book, error)

	// Get retrieves a book by its ID.
	Get(ctx context.Context, id string) (*Book, error)

	// Save persists the current state of a book, stamping UpdatedAt and
	// refreshing the page count.
	Save(ctx context.Context, book *Book) error

	// List returns all books in the store.
	List(ctx context.Context) ([]*Book, error)

	// Delete removes a book by its ID.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
