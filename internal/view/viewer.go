// Package view is an interactive terminal host for docfold. It renders
// documents with their folds collapsed, executes fold commands against a
// per-document FoldModel, and reports scrolling and unfolding back to the
// application as visible range changes.
package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/docfold/internal/app"
	"github.com/dshills/docfold/internal/config"
	"github.com/dshills/docfold/internal/event"
	"github.com/dshills/docfold/internal/event/events"
	"github.com/dshills/docfold/internal/fold"
)

// docState is the per-document viewport.
type docState struct {
	top    int
	cursor int

	// reported is the last visible ranges sent to the application.
	reported []fold.LineRange
	baseline bool

	spans [][]span
}

// Viewer draws the active document of an Application on a tcell screen.
// All state is owned by the goroutine running Run; work from other
// goroutines reaches it through Post.
type Viewer struct {
	screen tcell.Screen
	host   *Host
	logger *app.Logger

	app   *app.Application
	subs  []event.Subscription
	cfg   config.ViewConfig
	hl    *Highlighter
	docs  map[string]*docState
	keys  keymap
	msg   string
	quit  bool

	// blurred is the document that was active when the terminal lost focus.
	blurred string
}

// New initialises screen and returns a viewer drawing on it.
func New(screen tcell.Screen, logger *app.Logger) (*Viewer, error) {
	if logger == nil {
		logger = app.NullLogger
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.Clear()
	screen.EnableFocus()

	v := &Viewer{
		screen: screen,
		host:   NewHost(nil),
		logger: logger.WithComponent("view"),
		cfg:    config.Default().View,
		docs:   make(map[string]*docState),
	}
	v.hl = NewHighlighter(v.cfg.Theme)
	return v, nil
}

// Host returns the fold host backing the viewer.
func (v *Viewer) Host() *Host { return v.host }

// Executor returns a fold.Executor that runs work on the event loop.
func (v *Viewer) Executor() fold.Executor {
	return v.Post
}

// Post queues fn to run on the event loop, followed by a redraw.
func (v *Viewer) Post(fn func()) {
	if err := v.screen.PostEvent(tcell.NewEventInterrupt(fn)); err != nil {
		v.logger.Warn("dropped posted work: %v", err)
	}
}

// Attach connects the viewer to a. Fold models are created when a
// document opens, before any fold pass reaches the host.
func (v *Viewer) Attach(a *app.Application) error {
	v.app = a
	v.applyConfig(a.Config())
	v.host.SetScannerSource(a.Engine().Scanner)
	a.SetHost(v.host)

	bus := a.Bus()
	opened, err := event.Subscribe(bus, events.TopicDocumentOpened, v.onDocumentOpened,
		event.WithPriority(event.PriorityCritical))
	if err != nil {
		return err
	}
	closed, err := event.Subscribe(bus, events.TopicDocumentClosed, v.onDocumentClosed)
	if err != nil {
		return err
	}
	reloaded, err := event.Subscribe(bus, events.TopicConfigReloaded, v.onConfigReloaded)
	if err != nil {
		return err
	}
	failed, err := event.Subscribe(bus, events.TopicConfigReloadFailed, v.onConfigReloadFailed)
	if err != nil {
		return err
	}
	v.subs = append(v.subs, opened, closed, reloaded, failed)

	for _, doc := range a.Documents().All() {
		v.host.Attach(doc, a.Engine().Scanner())
	}
	return nil
}

func (v *Viewer) applyConfig(cfg *config.Config) {
	v.cfg = cfg.View
	v.hl = NewHighlighter(cfg.View.Theme)
	for _, st := range v.docs {
		st.spans = nil
	}
}

func (v *Viewer) onDocumentOpened(_ context.Context, evt event.Event[events.DocumentOpened]) error {
	v.host.Attach(evt.Payload.Document, v.app.Engine().Scanner())
	return nil
}

func (v *Viewer) onDocumentClosed(_ context.Context, evt event.Event[events.DocumentClosed]) error {
	v.host.Detach(evt.Payload.Key)
	key := evt.Payload.Key
	v.Post(func() { delete(v.docs, key) })
	return nil
}

func (v *Viewer) onConfigReloaded(_ context.Context, evt event.Event[events.ConfigReloaded]) error {
	cfg := v.app.Config()
	v.Post(func() {
		v.applyConfig(cfg)
		v.msg = "reloaded " + evt.Payload.Path
	})
	return nil
}

func (v *Viewer) onConfigReloadFailed(_ context.Context, evt event.Event[events.ConfigReloadFailed]) error {
	err := evt.Payload.Err
	v.Post(func() { v.msg = "config: " + err.Error() })
	return nil
}

// Run processes events until the user quits or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	if v.app == nil {
		return errors.New("viewer is not attached")
	}
	stop := context.AfterFunc(ctx, func() {
		v.Post(func() { v.quit = true })
	})
	defer stop()

	for !v.quit {
		v.Refresh(ctx)
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		v.HandleEvent(ctx, ev)
	}
	return ctx.Err()
}

// Close detaches from the application and releases the screen.
func (v *Viewer) Close() {
	if v.app != nil {
		for _, sub := range v.subs {
			_ = v.app.Bus().Unsubscribe(sub)
		}
	}
	v.subs = nil
	v.screen.Fini()
}

// Quit reports whether the user asked to quit.
func (v *Viewer) Quit() bool { return v.quit }

// Message returns the status message.
func (v *Viewer) Message() string { return v.msg }

// Cursor returns the cursor line of the active document.
func (v *Viewer) Cursor() int {
	if doc := v.app.ActiveDocument(); doc != nil {
		return v.state(doc.Key()).cursor
	}
	return 0
}

// HandleEvent applies one screen event.
func (v *Viewer) HandleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if fn, ok := ev.Data().(func()); ok && fn != nil {
			fn()
		}
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		v.handleKey(ctx, ev)
	case *tcell.EventFocus:
		v.handleFocus(ctx, ev.Focused)
	}
}

// handleFocus leaves no document active while the terminal is in the
// background and refocuses the previous one when it returns.
func (v *Viewer) handleFocus(ctx context.Context, focused bool) {
	if !focused {
		if doc := v.app.ActiveDocument(); doc != nil {
			v.blurred = doc.Key()
			v.app.Blur(ctx)
		}
		return
	}
	key := v.blurred
	v.blurred = ""
	if key == "" || v.app.ActiveDocument() != nil {
		return
	}
	if _, err := v.app.Activate(ctx, key); err != nil {
		v.logger.Debug("refocus %s: %v", key, err)
	}
}

// Refresh draws the screen and reports visible range changes of the
// active document.
func (v *Viewer) Refresh(ctx context.Context) {
	v.draw()
	v.reportVisible(ctx)
}

func (v *Viewer) state(key string) *docState {
	st, ok := v.docs[key]
	if !ok {
		st = &docState{}
		v.docs[key] = st
	}
	return st
}

// active returns the active document with its model and viewport state.
func (v *Viewer) active() (*app.Document, *FoldModel, *docState) {
	doc := v.app.ActiveDocument()
	if doc == nil {
		return nil, nil, nil
	}
	model := v.host.Attach(doc, v.app.Engine().Scanner())
	return doc, model, v.state(doc.Key())
}

func (v *Viewer) textHeight() int {
	_, h := v.screen.Size()
	if h <= 1 {
		return 1
	}
	return h - 1
}

// reportVisible sends the shown ranges of the active document when they
// differ from the last report. The first report of a document only records
// a baseline: a document opened folded has nothing expanded yet.
func (v *Viewer) reportVisible(ctx context.Context) {
	doc, model, st := v.active()
	if doc == nil {
		return
	}
	visible := model.VisibleRanges(doc, st.top, v.textHeight())
	if st.baseline && sameRanges(visible, st.reported) {
		return
	}
	first := !st.baseline
	st.reported = visible
	st.baseline = true
	if first {
		return
	}
	if err := v.app.UpdateVisible(ctx, doc.Key(), visible); err != nil {
		v.logger.Warn("visible ranges of %s: %v", doc.Name, err)
	}
}

func sameRanges(a, b []fold.LineRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End {
			return false
		}
	}
	return true
}

// scroll keeps the cursor on a shown line inside the window.
func (v *Viewer) scroll(model *FoldModel, st *docState) {
	if model.Lines() == 0 {
		st.top, st.cursor = 0, 0
		return
	}
	st.cursor = model.Visible(min(st.cursor, model.Lines()-1))
	st.top = model.Visible(min(st.top, st.cursor))

	height := v.textHeight()
	shown := model.DisplayLines(st.top, height)
	if len(shown) > 0 && st.cursor > shown[len(shown)-1] {
		st.top = model.NextVisible(st.cursor, -(height - 1))
	}
}

func (v *Viewer) runCommand(ctx context.Context, name string) {
	if err := v.app.ExecuteCommand(ctx, name); err != nil {
		v.msg = err.Error()
		return
	}
	if cmd, ok := v.app.Commands().Get(name); ok {
		v.msg = cmd.Title
	}
}

func (v *Viewer) closeActive(ctx context.Context) {
	doc := v.app.ActiveDocument()
	if doc == nil {
		return
	}
	if err := v.app.Close(ctx, doc.Key()); err != nil {
		v.msg = err.Error()
		return
	}
	delete(v.docs, doc.Key())
	v.msg = "closed " + doc.Name
}
