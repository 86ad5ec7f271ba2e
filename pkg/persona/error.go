package persona

// ErrNotFound is returned when a persona or conversation doesn't exist in
// the store.
type ErrNotFound struct {
	Kind string // "persona" or "conversation"
	ID   string
}

func (e ErrNotFound) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "persona"
	}

	if e.ID == "" {
		return kind + " not found"
	}

	return kind + " not found: " + e.ID
}
