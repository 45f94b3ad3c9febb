package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/docfold/internal/event/topic"
)

// Event is a typed payload published on a topic. Handlers must treat it as
// read-only; the bus hands the same value to every subscriber.
type Event[T any] struct {
	Type     topic.Topic
	Payload  T
	Metadata Metadata
}

// Metadata is stamped on every event by NewEvent.
type Metadata struct {
	ID        string
	Timestamp time.Time
	Source    string // publishing component, e.g. "app"
}

// NewEvent wraps payload for publishing on t.
func NewEvent[T any](t topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic lets the bus route an event without knowing T.
func (e Event[T]) EventTopic() topic.Topic { return e.Type }

// EventMetadata returns the metadata without knowing T.
func (e Event[T]) EventMetadata() Metadata { return e.Metadata }

// TopicProvider is what Publish accepts: any Event[T].
type TopicProvider interface {
	EventTopic() topic.Topic
}
