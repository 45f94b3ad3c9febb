// Package event provides the event bus that carries editor lifecycle
// events (document opened, active editor changed, visible ranges changed,
// document closed) to the fold engine.
//
// Events use hierarchical topics with dot notation and subscriptions may use
// wildcards:
//
//	document.*    - matches document.opened, document.closed
//	editor.**     - matches editor.active.changed, editor.visibleRanges.changed
//	*.changed     - matches config.changed
//
// # Delivery
//
// Delivery is synchronous. Publish runs every matching handler on the
// calling goroutine, lowest Priority first, then subscription order. A
// panicking handler is recovered and reported as a *PanicError; the other
// handlers still run.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	_ = bus.Start()
//	defer bus.Stop()
//
//	sub, err := event.Subscribe(bus, events.TopicDocumentOpened,
//	    func(ctx context.Context, evt event.Event[events.DocumentOpened]) error {
//	        _, err := engine.DocumentOpened(ctx, evt.Payload.Document)
//	        return err
//	    },
//	    event.WithPriority(event.PriorityHigh),
//	)
//
//	evt := event.NewEvent(events.TopicDocumentOpened, events.DocumentOpened{Document: doc}, "app")
//	err = bus.Publish(ctx, evt)
//
// # Thread Safety
//
// The Bus is safe for concurrent use. Subscriptions can be added or removed
// while events are being published.
package event
