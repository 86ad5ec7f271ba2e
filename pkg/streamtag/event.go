package streamtag

// EventType discriminates the kinds of events a Classifier emits.
type EventType string

const (
	// EventThinking marks a transition into or out of thinking mode.
	EventThinking EventType = "thinking"

	// EventToken carries a chunk of user-visible text.
	EventToken EventType = "token"
)

// Event is a single classified output from the stream.
// Exactly one of the payload fields is meaningful, selected by Type:
// Thinking for EventThinking, Text for EventToken.
type Event struct {
	Type     EventType
	Thinking bool
	Text     string
}

// ThinkingEvent returns an event signaling entry (true) or exit (false)
// of thinking mode.
func ThinkingEvent(active bool) Event {
	return Event{Type: EventThinking, Thinking: active}
}

// TokenEvent returns an event carrying visible token text.
func TokenEvent(text string) Event {
	return Event{Type: EventToken, Text: text}
}
