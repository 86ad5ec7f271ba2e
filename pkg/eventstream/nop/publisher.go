package nop

import (
	"context"

	"github.com/fablehq/fable/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishPage validates input and otherwise does nothing.
func (p *Publisher) PublishPage(_ context.Context, event *eventstream.PagePersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilPageEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
