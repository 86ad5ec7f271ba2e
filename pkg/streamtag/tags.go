package streamtag

// Tags holds the four delimiter literals the classifier recognizes.
// The literals must be distinct and non-overlapping; beyond that their
// exact values are a configuration detail.
type Tags struct {
	ThinkOpen   string
	ThinkClose  string
	AnswerOpen  string
	AnswerClose string
}

// DefaultTags returns the delimiters emitted by reasoning-capable models
// in the wild: <think>...</think> for internal reasoning and
// <answer>...</answer> for the explicit user-facing reply.
func DefaultTags() Tags {
	return Tags{
		ThinkOpen:   "<think>",
		ThinkClose:  "</think>",
		AnswerOpen:  "<answer>",
		AnswerClose: "</answer>",
	}
}

// all returns the literals in the fixed priority order used for
// transition matching: think-open, think-close, answer-open, answer-close.
func (t Tags) all() []string {
	return []string{t.ThinkOpen, t.ThinkClose, t.AnswerOpen, t.AnswerClose}
}

// maxLen returns the length of the longest delimiter literal.
func (t Tags) maxLen() int {
	max := 0
	for _, lit := range t.all() {
		if len(lit) > max {
			max = len(lit)
		}
	}
	return max
}
