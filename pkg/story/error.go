package story

// ErrNotFound is returned when a book doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "book not found"
	}

	return "book not found: " + e.ID
}
