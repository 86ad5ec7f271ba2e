// Package streamtag implements a single-pass, tag-aware classifier for LLM
// completion streams. It consumes raw text fragments as they arrive from a
// model, detects delimiter tags that may be split across fragment boundaries,
// and re-emits the stream as typed events so that thinking-mode content and
// partial delimiters never reach a consumer.
//
// The classifier is a pure in-memory transformer: it performs no I/O, raises
// no errors, and holds no state shared between instances. Each stream gets
// its own Classifier; concurrent streams need no locking.
package streamtag

import "strings"

// delayBound is the number of classified fragments held back before the
// oldest becomes eligible for emission. Holding fragments back guarantees
// a delimiter split across fragment boundaries is detected before any of
// its constituent text has been irreversibly emitted.
const delayBound = 3

// Mode is the classifier's current content mode. Exactly one mode is
// active at any time; thinking and answer are never active together.
type Mode int

const (
	// ModeNormal is the initial mode: content is visible, no tag seen yet.
	ModeNormal Mode = iota

	// ModeThinking covers content between think-open and think-close tags.
	// Fragments in this mode are discarded, never emitted or accumulated.
	ModeThinking

	// ModeAnswer covers content between answer-open and answer-close tags.
	// Content is visible, same handling as ModeNormal.
	ModeAnswer
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ModeThinking:
		return "thinking"
	case ModeAnswer:
		return "answer"
	default:
		return "normal"
	}
}

// Classifier turns an ordered sequence of raw fragments into an ordered
// sequence of Events. Feed fragments one at a time, then call Flush once
// the source is exhausted and Result for the assembled page text.
//
// Known quirk, kept for compatibility with the streams this pipeline has
// always produced: fragments still waiting in the delay queue when a tag
// transition fires are dropped, not flushed. A transition boundary is
// therefore lossy for up to delayBound-1 queued fragments of visible text.
type Classifier struct {
	tags     Tags
	tagAware bool

	mode   Mode
	tagBuf string
	delay  []string
	page   strings.Builder
}

// Option configures a Classifier created with New.
type Option func(*Classifier)

// WithTags overrides the default delimiter literals.
func WithTags(tags Tags) Option {
	return func(c *Classifier) {
		c.tags = tags
	}
}

// New creates a tag-aware Classifier with the default delimiters.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		tags:     DefaultTags(),
		tagAware: true,
		delay:    make([]string, 0, delayBound),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewPassthrough creates a Classifier with tag handling disabled: every
// fragment becomes one Token event immediately, with no buffering, no
// discarding, and no stripping of the terminal result.
func NewPassthrough() *Classifier {
	return &Classifier{tagAware: false}
}

// Mode returns the classifier's current content mode.
func (c *Classifier) Mode() Mode {
	return c.mode
}

// Feed processes one incoming fragment and returns the events it produced,
// in order: a Thinking transition, or the Token(s) the delay queue released
// this round, or nothing.
func (c *Classifier) Feed(fragment string) []Event {
	if !c.tagAware {
		c.page.WriteString(fragment)
		return []Event{TokenEvent(fragment)}
	}

	c.tagBuf += fragment

	// A delimiter may be split byte-by-byte across many fragments, so
	// matching runs over the whole accumulated tag buffer, not just the
	// newest fragment. At most one transition is consumed per fragment;
	// the fixed priority order in applyTransition resolves any ambiguity.
	if ev, ok := c.applyTransition(); ok {
		if ev != nil {
			return []Event{*ev}
		}
		return nil
	}

	if c.mode == ModeThinking {
		// Thinking content is dropped. The tag buffer keeps a bounded
		// window of it so a split close tag is still detected.
		c.boundTagBuf()
		return nil
	}

	c.delay = append(c.delay, fragment)
	events := c.popReady()
	c.boundTagBuf()

	return events
}

// popReady emits queued fragments once the queue has reached its bound.
// A fragment is withheld past the bound while the queue's combined tail
// could still be the opening of a delimiter that overlaps it; emission
// resumes as soon as the ambiguity resolves. This keeps a delimiter fed
// one byte per fragment from leaking its leading bytes.
func (c *Classifier) popReady() []Event {
	var events []Event

	for len(c.delay) >= delayBound {
		joined := strings.Join(c.delay, "")
		held := c.tagPrefixLen(joined)
		if len(joined)-held < len(c.delay[0]) {
			break
		}

		oldest := c.delay[0]
		c.delay = c.delay[1:]
		c.page.WriteString(oldest)
		events = append(events, TokenEvent(oldest))
	}

	return events
}

// tagPrefixLen returns the length of the longest suffix of s that is a
// proper prefix of any delimiter literal, i.e. the tail that might still
// grow into a tag and must not be emitted yet.
func (c *Classifier) tagPrefixLen(s string) int {
	longest := 0
	for _, lit := range c.tags.all() {
		if lit == "" {
			continue
		}

		limit := len(lit) - 1
		if limit > len(s) {
			limit = len(s)
		}
		for n := limit; n > longest; n-- {
			if strings.HasSuffix(s, lit[:n]) {
				longest = n
				break
			}
		}
	}

	return longest
}

// applyTransition checks the tag buffer for a mode transition and applies
// the first one meaningful for the current mode: think-open, think-close,
// answer-open, answer-close, in that order, each gated so only an actual
// mode change fires. It reports whether a transition fired; the returned
// event is nil for answer-tag transitions, which change mode silently.
//
// On a match, exactly one occurrence of the literal is consumed. Text
// before the literal belongs to the mode being left and is dropped along
// with the delay queue. Text after the literal belongs to the new mode:
// it stays in the tag buffer for further tag detection and, when the new
// mode is visible, re-enters the delay queue as content.
func (c *Classifier) applyTransition() (*Event, bool) {
	type candidate struct {
		literal string
		armed   bool
		to      Mode
	}

	candidates := []candidate{
		{literal: c.tags.ThinkOpen, armed: c.mode != ModeThinking, to: ModeThinking},
		{literal: c.tags.ThinkClose, armed: c.mode == ModeThinking, to: ModeNormal},
		{literal: c.tags.AnswerOpen, armed: c.mode != ModeAnswer, to: ModeAnswer},
		{literal: c.tags.AnswerClose, armed: c.mode == ModeAnswer, to: ModeNormal},
	}

	for _, cand := range candidates {
		if !cand.armed || cand.literal == "" {
			continue
		}

		idx := strings.Index(c.tagBuf, cand.literal)
		if idx < 0 {
			continue
		}

		residual := c.tagBuf[idx+len(cand.literal):]
		c.tagBuf = residual
		c.delay = c.delay[:0]

		wasThinking := c.mode == ModeThinking
		c.mode = cand.to

		if residual != "" && c.mode != ModeThinking {
			// The residual cannot leak an embedded tag: any tag it
			// carries is already in the tag buffer and fires on the
			// next fragment, clearing the queue long before the
			// residual reaches the emission bound.
			c.delay = append(c.delay, residual)
		}

		switch {
		case cand.to == ModeThinking:
			ev := ThinkingEvent(true)
			return &ev, true
		case wasThinking && cand.literal == c.tags.ThinkClose:
			ev := ThinkingEvent(false)
			return &ev, true
		default:
			// Answer tags flip the mode without an event.
			return nil, true
		}
	}

	return nil, false
}

// boundTagBuf trims the tag buffer to the longest suffix that could still
// hold the prefix of a delimiter. A delimiter can never be confirmed from
// a prefix shorter than itself, so retaining maxLen-1 bytes preserves
// detection exactly while keeping the buffer bounded on tag-free streams.
// Only called on rounds that produced no transition; a transition round
// may leave a full literal in the residual, which must survive intact.
func (c *Classifier) boundTagBuf() {
	keep := c.tags.maxLen() - 1
	if keep < 0 {
		keep = 0
	}
	if len(c.tagBuf) > keep {
		c.tagBuf = c.tagBuf[len(c.tagBuf)-keep:]
	}
}

// Flush drains the delay queue at input exhaustion, returning the held-back
// fragments as Token events in arrival order. Without this, a stream
// shorter than the delay bound would never emit anything.
func (c *Classifier) Flush() []Event {
	if !c.tagAware || len(c.delay) == 0 {
		return nil
	}

	events := make([]Event, 0, len(c.delay))
	for _, text := range c.delay {
		c.page.WriteString(text)
		events = append(events, TokenEvent(text))
	}
	c.delay = c.delay[:0]

	return events
}

// Result returns the assembled visible text once the stream is exhausted.
// In tag-aware mode all four delimiter literals are stripped defensively,
// covering streams whose closing tag never arrived, and surrounding
// whitespace is trimmed. In pass-through mode the raw accumulation is
// returned as-is.
func (c *Classifier) Result() string {
	text := c.page.String()
	if !c.tagAware {
		return text
	}

	for _, lit := range c.tags.all() {
		if lit == "" {
			continue
		}
		text = strings.ReplaceAll(text, lit, "")
	}

	return strings.TrimSpace(text)
}
