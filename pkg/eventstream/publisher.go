// Package eventstream defines the versioned event payloads Fable emits when a
// page is persisted, plus the Publisher contract that backends implement.
package eventstream

import "context"

// Publisher publishes page events to an event stream backend.
type Publisher interface {
	PublishPage(ctx context.Context, event *PagePersistedEvent) error
	Close() error
}
