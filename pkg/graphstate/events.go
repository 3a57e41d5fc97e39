package graphstate

import (
	"context"
	"time"

	"github.com/dd0wney/etymograph/pkg/pubsub"
	"github.com/google/uuid"
)

// EventKind is the topic an event is published on.
type EventKind string

const (
	NodesChanged     EventKind = "nodes_changed"
	SelectionChanged EventKind = "selection_changed"
	LoadError        EventKind = "load_error"

	// AllEvents subscribes to every kind.
	AllEvents EventKind = "*"
)

// Event notifies consumers that the visible graph changed.
type Event struct {
	ID         uuid.UUID
	Kind       EventKind
	At         time.Time
	Generation uint64

	// NodesChanged
	Nodes int
	Edges int
	Added []string

	// SelectionChanged
	Selected string

	// LoadError
	WordID string
	Word   string
	Err    error
}

// Subscription delivers engine events.
type Subscription = pubsub.Subscription[Event]

// Subscribe returns a subscription to one kind of event, or to all of
// them with AllEvents. It ends when ctx is done or the engine closes.
func (e *Engine) Subscribe(ctx context.Context, kind EventKind) (*Subscription, error) {
	return e.events.Subscribe(ctx, string(kind))
}

func (e *Engine) publish(ev Event) {
	ev.ID = uuid.New()
	ev.At = time.Now()
	e.events.Publish(string(ev.Kind), ev)
	e.events.Publish(string(AllEvents), ev)
}
