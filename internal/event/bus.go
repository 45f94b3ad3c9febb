package event

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/docfold/internal/event/topic"
)

// Bus is the central event bus interface.
type Bus interface {
	// Publish delivers event to every matching subscription on the calling
	// goroutine, in priority order. Handler errors are joined and returned.
	Publish(ctx context.Context, event any) error

	// Subscription
	Subscribe(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription) error

	// Lifecycle
	Start() error
	Stop() error
	IsRunning() bool

	// Stats returns delivery counters.
	Stats() Stats
}

// Stats contains bus delivery counters.
type Stats struct {
	EventsPublished  uint64
	HandlersExecuted uint64
	HandlerErrors    uint64
	HandlerPanics    uint64
	Subscriptions    int
}

// bus is the default Bus implementation. Delivery is always synchronous:
// the editor runs its fold logic on a single event goroutine.
type bus struct {
	mu   sync.RWMutex
	subs []*subscription
	seq  uint64

	running atomic.Bool

	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new, stopped event bus.
func NewBus() Bus {
	return &bus{}
}

// Start starts the event bus.
func (b *bus) Start() error {
	if b.running.Swap(true) {
		return ErrBusAlreadyRunning
	}
	return nil
}

// Stop stops the event bus.
func (b *bus) Stop() error {
	if !b.running.Swap(false) {
		return ErrBusNotRunning
	}
	return nil
}

// IsRunning returns true if the bus is running.
func (b *bus) IsRunning() bool {
	return b.running.Load()
}

// Subscribe creates a new subscription for the given topic pattern.
func (b *bus) Subscribe(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	if !pattern.Valid() {
		return nil, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub := newSubscription(pattern, fn, b.seq, opts)
	b.subs = append(b.subs, sub)
	slices.SortStableFunc(b.subs, func(a, c *subscription) int {
		if a.config.Priority != c.config.Priority {
			return int(a.config.Priority) - int(c.config.Priority)
		}
		return int(a.seq) - int(c.seq)
	})

	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.ID() {
			s.Cancel()
			b.subs = slices.Delete(b.subs, i, i+1)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers the event synchronously.
func (b *bus) Publish(ctx context.Context, event any) error {
	if !b.running.Load() {
		return ErrBusNotRunning
	}

	tp, ok := event.(TopicProvider)
	if !ok || !tp.EventTopic().Valid() || tp.EventTopic().IsPattern() {
		return ErrInvalidEvent
	}
	eventTopic := tp.EventTopic()

	b.mu.RLock()
	var matched []*subscription
	for _, s := range b.subs {
		if eventTopic.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	b.eventsPublished.Add(1)

	var errs []error
	for _, s := range matched {
		// A handler may cancel a later subscription.
		if !s.shouldDeliver() {
			continue
		}

		b.handlersExecuted.Add(1)
		if err := b.dispatch(ctx, s, eventTopic, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// dispatch runs one handler, converting panics to PanicError.
func (b *bus) dispatch(ctx context.Context, s *subscription, eventTopic topic.Topic, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = &PanicError{
				SubscriptionID: s.id,
				Topic:          eventTopic.String(),
				Value:          r,
				Stack:          string(debug.Stack()),
			}
		}
	}()

	if herr := s.handler(ctx, event); herr != nil {
		b.handlerErrors.Add(1)
		return &HandlerError{SubscriptionID: s.id, Topic: eventTopic.String(), Err: herr}
	}
	return nil
}

// Stats returns a snapshot of bus counters.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:  b.eventsPublished.Load(),
		HandlersExecuted: b.handlersExecuted.Load(),
		HandlerErrors:    b.handlerErrors.Load(),
		HandlerPanics:    b.handlerPanics.Load(),
		Subscriptions:    n,
	}
}

// Subscribe registers a handler that only receives events with a payload
// of type T. Events of other payload types are skipped.
func Subscribe[T any](b Bus, pattern topic.Topic, fn func(ctx context.Context, evt Event[T]) error, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	typed := func(ctx context.Context, event any) error {
		evt, ok := event.(Event[T])
		if !ok {
			return nil
		}
		return fn(ctx, evt)
	}
	return b.Subscribe(pattern, typed, opts...)
}

// MustStart starts b and panics on failure. Intended for tests and setup code.
func MustStart(b Bus) Bus {
	if err := b.Start(); err != nil {
		panic(fmt.Sprintf("event: start bus: %v", err))
	}
	return b
}
