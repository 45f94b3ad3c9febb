package app

import (
	"context"
	"sync"

	"github.com/dshills/docfold/internal/event"
	"github.com/dshills/docfold/internal/event/events"
	"github.com/dshills/docfold/internal/fold"
)

// subscriptionManager connects bus topics to the fold engine.
type subscriptionManager struct {
	mu            sync.Mutex
	subscriptions []event.Subscription
	app           *Application
}

func newSubscriptionManager(app *Application) *subscriptionManager {
	return &subscriptionManager{app: app}
}

// setup registers every subscription.
//
// Open and focus changes schedule a delayed pass over whatever document is
// active when the pass runs. Visible range changes and closes update the
// expansion memory right away, ahead of any lower priority listeners.
func (sm *subscriptionManager) setup() error {
	steps := []func() (event.Subscription, error){
		func() (event.Subscription, error) {
			return event.Subscribe(sm.app.bus, events.TopicDocumentOpened, sm.onDocumentOpened)
		},
		func() (event.Subscription, error) {
			return event.Subscribe(sm.app.bus, events.TopicActiveEditorChanged, sm.onActiveEditorChanged)
		},
		func() (event.Subscription, error) {
			return event.Subscribe(sm.app.bus, events.TopicVisibleRangesChanged, sm.onVisibleRangesChanged,
				event.WithPriority(event.PriorityHigh))
		},
		func() (event.Subscription, error) {
			return event.Subscribe(sm.app.bus, events.TopicDocumentClosed, sm.onDocumentClosed,
				event.WithPriority(event.PriorityHigh))
		},
		func() (event.Subscription, error) {
			return event.Subscribe(sm.app.bus, events.TopicConfigReloaded, sm.onConfigReloaded,
				event.WithPriority(event.PriorityLow))
		},
	}

	for _, step := range steps {
		sub, err := step()
		if err != nil {
			return err
		}
		sm.add(sub)
	}
	return nil
}

func (sm *subscriptionManager) add(sub event.Subscription) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.subscriptions = append(sm.subscriptions, sub)
}

func (sm *subscriptionManager) unsubscribeAll() {
	sm.mu.Lock()
	subs := sm.subscriptions
	sm.subscriptions = nil
	sm.mu.Unlock()

	for _, sub := range subs {
		_ = sm.app.bus.Unsubscribe(sub)
	}
}

func (sm *subscriptionManager) onDocumentOpened(ctx context.Context, _ event.Event[events.DocumentOpened]) error {
	return sm.schedulePass(ctx, sm.app.engine.DocumentOpened)
}

func (sm *subscriptionManager) onActiveEditorChanged(ctx context.Context, _ event.Event[events.ActiveEditorChanged]) error {
	return sm.schedulePass(ctx, sm.app.engine.ActiveEditorChanged)
}

func (sm *subscriptionManager) onVisibleRangesChanged(_ context.Context, evt event.Event[events.VisibleRangesChanged]) error {
	if evt.Payload.Document == nil {
		return nil
	}
	sm.app.engine.VisibleRangesChanged(evt.Payload.Document, evt.Payload.Visible)
	return nil
}

func (sm *subscriptionManager) onDocumentClosed(_ context.Context, evt event.Event[events.DocumentClosed]) error {
	sm.app.engine.DocumentClosed(evt.Payload.Key)
	return nil
}

// onConfigReloaded refolds the active document under the new scanner.
func (sm *subscriptionManager) onConfigReloaded(ctx context.Context, _ event.Event[events.ConfigReloaded]) error {
	return sm.schedulePass(ctx, sm.app.engine.Pass)
}

// schedulePass queues pass for the document active when the timer fires.
// The publisher's context may be gone by then, so the pass runs under the
// application context.
func (sm *subscriptionManager) schedulePass(_ context.Context, pass func(context.Context, fold.Document) (fold.Decision, error)) error {
	app := sm.app
	return app.scheduler.ScheduleFunc(func() {
		if _, err := pass(app.ctx, app.activeDocument()); err != nil {
			app.logger.WithComponent("scheduler").Warn("fold pass: %v", err)
		}
	})
}
