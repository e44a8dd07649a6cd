// Package events provides the in-process bus entity changes are published on.
// The entity service publishes "<model>.created", "<model>.updated" and
// "<model>.deleted" after each successful write.
package events

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Actions published by the entity service.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is one entity change.
type Event struct {
	// Name is "<model>.<action>" with the model in lower camel case, e.g. "post.created".
	Name string

	// Model is the schema name, e.g. "Post".
	Model string

	Action string

	// ID is the primary key of the changed entity.
	ID any

	// Data is the entity after the change, hidden fields removed. Nil for deletes.
	Data map[string]any
}

// Handler processes an event.
type Handler func(ctx context.Context, event Event) error

// Publisher is what the entity service publishes to.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Bus is a synchronous publish/subscribe bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler. Patterns:
//   - "post.created" matches that event only
//   - "post.*" matches every event of the model
//   - "*" matches everything
func (b *Bus) Subscribe(pattern string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[pattern] = append(b.handlers[pattern], handler)
}

// Publish calls every matching handler in registration order: exact
// subscribers first, then model wildcards, then global ones. Handler errors
// are logged and do not stop delivery.
func (b *Bus) Publish(ctx context.Context, event Event) {
	matched := b.match(event.Name)

	b.logger.Debug().
		Str("event", event.Name).
		Int("handlers", len(matched)).
		Msg("event published")

	for _, handler := range matched {
		if err := handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers reports whether any handler matches name.
func (b *Bus) HasSubscribers(name string) bool {
	return len(b.match(name)) > 0
}

func (b *Bus) match(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var matched []Handler
	matched = append(matched, b.handlers[name]...)
	if model, _, ok := strings.Cut(name, "."); ok {
		matched = append(matched, b.handlers[model+".*"]...)
	}
	if name != "*" {
		matched = append(matched, b.handlers["*"]...)
	}
	return matched
}

// Name builds the event name for a model and action.
func Name(model, action string) string {
	if model == "" {
		return action
	}
	return strings.ToLower(model[:1]) + model[1:] + "." + action
}
