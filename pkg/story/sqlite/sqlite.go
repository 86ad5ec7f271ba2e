// Package sqlite provides a SQLite-backed story.Store. Book documents are
// stored as JSON alongside indexed metadata columns.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fablehq/fable/pkg/story"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	doc        TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_books_updated_at ON books (updated_at);
`

// Store implements story.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a SQLite-backed store. The dbPath can be a file path or
// ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Create(ctx context.Context, title string) (*story.Book, error) {
	book := story.NewBook(title)
	if err := s.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Store) Get(ctx context.Context, id string) (*story.Book, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM books WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, story.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("querying book %s: %w", id, err)
	}

	return unmarshalBook(doc, id)
}

func (s *Store) Save(ctx context.Context, book *story.Book) error {
	if book == nil {
		return errors.New("cannot save nil book")
	}

	book.UpdatedAt = time.Now().UTC()
	book.NumPages = len(book.Pages)

	doc, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshaling book %s: %w", book.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, doc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			doc = excluded.doc,
			updated_at = excluded.updated_at`,
		book.ID, book.Title, string(doc), book.CreatedAt, book.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving book %s: %w", book.ID, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context) ([]*story.Book, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, doc FROM books ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var books []*story.Book
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning book row: %w", err)
		}

		book, err := unmarshalBook(doc, id)
		if err != nil {
			return nil, err
		}

		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating book rows: %w", err)
	}

	return books, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return story.ErrNotFound{ID: id}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// unmarshalBook parses a stored document, with the row ID authoritative.
func unmarshalBook(doc, id string) (*story.Book, error) {
	book := &story.Book{}
	if err := json.Unmarshal([]byte(doc), book); err != nil {
		return nil, fmt.Errorf("parsing book %s: %w", id, err)
	}

	book.ID = id
	return book, nil
}
