package fold

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Host is the editor that owns folding. Lines are zero-based start lines of
// the regions to act on.
type Host interface {
	Fold(ctx context.Context, key string, lines []int) error
	Unfold(ctx context.Context, key string, lines []int) error
	UnfoldAll(ctx context.Context, key string) error
}

// Phase is the step an engine pass is in.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseScanning
	PhaseFiltering
	PhaseEmitting
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseScanning:
		return "scanning"
	case PhaseFiltering:
		return "filtering"
	case PhaseEmitting:
		return "emitting"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one pass over a document.
type Decision struct {
	// Key identifies the document.
	Key string

	// Blocks are all JSDoc blocks found.
	Blocks []LineRange

	// Expanded is the expansion set at the time of the pass.
	Expanded []LineRange

	// Attached are the blocks documenting a class or module export.
	Attached []LineRange

	// ToFold is Blocks minus Expanded minus Attached.
	ToFold []LineRange
}

// FoldLines returns the start lines handed to the host.
func (d Decision) FoldLines() []int {
	return StartLines(d.ToFold)
}

// Stats holds engine counters.
type Stats struct {
	Passes         uint64
	FoldRequests   uint64
	RangesFolded   uint64
	UnfoldRequests uint64
	HostErrors     uint64
}

// Engine turns trigger events into fold requests.
//
// The engine holds no state between passes apart from the Tracker. All
// methods are safe for concurrent use, although hosts normally call them
// from a single event goroutine.
type Engine struct {
	host    Host
	scanner atomic.Pointer[Scanner]
	tracker *Tracker
	logger  zerolog.Logger

	phaseMu sync.Mutex
	phase   Phase

	passes         atomic.Uint64
	foldRequests   atomic.Uint64
	rangesFolded   atomic.Uint64
	unfoldRequests atomic.Uint64
	hostErrors     atomic.Uint64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithScanner sets the scanner used by passes.
func WithScanner(s *Scanner) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.scanner.Store(s)
		}
	}
}

// WithTracker shares an existing tracker with the engine.
func WithTracker(t *Tracker) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracker = t
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine that sends fold requests to host.
// host may be nil for engines only used through Decide.
func NewEngine(host Host, opts ...EngineOption) *Engine {
	e := &Engine{
		host:    host,
		tracker: NewTracker(),
		logger:  zerolog.Nop(),
	}
	e.scanner.Store(NewScanner())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scanner returns the current scanner.
func (e *Engine) Scanner() *Scanner {
	return e.scanner.Load()
}

// SetScanner swaps the scanner used by later passes.
func (e *Engine) SetScanner(s *Scanner) {
	if s != nil {
		e.scanner.Store(s)
	}
}

// Tracker returns the expansion tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Phase returns the phase of the pass in progress, or PhaseIdle.
func (e *Engine) Phase() Phase {
	e.phaseMu.Lock()
	defer e.phaseMu.Unlock()
	return e.phase
}

func (e *Engine) enter(p Phase) {
	e.phaseMu.Lock()
	e.phase = p
	e.phaseMu.Unlock()
	e.logger.Trace().Str("phase", p.String()).Msg("fold: phase")
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Passes:         e.passes.Load(),
		FoldRequests:   e.foldRequests.Load(),
		RangesFolded:   e.rangesFolded.Load(),
		UnfoldRequests: e.unfoldRequests.Load(),
		HostErrors:     e.hostErrors.Load(),
	}
}

// Decide computes which blocks of doc should be folded without touching
// the host.
func (e *Engine) Decide(doc Document) Decision {
	scanner := e.Scanner()

	e.enter(PhaseScanning)
	blocks := scanner.JSDoc(doc)

	e.enter(PhaseFiltering)
	expanded := e.tracker.Expanded(doc.Key())
	attached := scanner.AttachedBlocks(doc, blocks)

	return Decision{
		Key:      doc.Key(),
		Blocks:   blocks,
		Expanded: expanded,
		Attached: attached,
		ToFold:   Subtract(blocks, expanded, attached),
	}
}

// Pass runs one fold pass over doc. When there is something to fold the
// host receives exactly one Fold call carrying every qualifying start line.
// A nil doc is a no-op.
func (e *Engine) Pass(ctx context.Context, doc Document) (Decision, error) {
	if doc == nil {
		e.logger.Debug().Msg("fold: no active document")
		return Decision{}, nil
	}
	defer e.enter(PhaseIdle)

	e.passes.Add(1)
	d := e.Decide(doc)

	e.logger.Debug().
		Str("doc", d.Key).
		Int("blocks", len(d.Blocks)).
		Int("expanded", len(d.Expanded)).
		Int("attached", len(d.Attached)).
		Int("fold", len(d.ToFold)).
		Msg("fold: found JSDoc blocks")

	if len(d.ToFold) == 0 {
		return d, nil
	}

	e.enter(PhaseEmitting)
	if e.host == nil {
		return d, ErrNoHost
	}

	e.foldRequests.Add(1)
	if err := e.host.Fold(ctx, d.Key, d.FoldLines()); err != nil {
		e.hostErrors.Add(1)
		e.logger.Warn().Err(err).Str("doc", d.Key).Msg("fold: host fold failed")
		return d, &HostError{Command: "fold", Key: d.Key, Err: err}
	}
	e.rangesFolded.Add(uint64(len(d.ToFold)))

	return d, nil
}

// DocumentOpened runs a pass for a newly opened JavaScript or TypeScript
// document. Other languages are ignored.
func (e *Engine) DocumentOpened(ctx context.Context, doc Document) (Decision, error) {
	if doc == nil || !IsSupported(doc.LanguageID()) {
		return Decision{}, nil
	}
	return e.Pass(ctx, doc)
}

// ActiveEditorChanged runs a pass for the newly focused document. A nil doc
// means no editor is focused.
func (e *Engine) ActiveEditorChanged(ctx context.Context, doc Document) (Decision, error) {
	if doc == nil || !IsSupported(doc.LanguageID()) {
		return Decision{}, nil
	}
	return e.Pass(ctx, doc)
}

// VisibleRangesChanged replaces the expansion set of doc with the blocks
// intersecting visible and returns it.
func (e *Engine) VisibleRangesChanged(doc Document, visible []LineRange) []LineRange {
	if doc == nil || !IsSupported(doc.LanguageID()) {
		return nil
	}
	expanded := e.tracker.Update(doc.Key(), e.Scanner().JSDoc(doc), visible)
	e.logger.Debug().
		Str("doc", doc.Key()).
		Int("expanded", len(expanded)).
		Msg("fold: visible ranges changed")
	return expanded
}

// DocumentClosed drops the expansion memory of key.
func (e *Engine) DocumentClosed(key string) {
	if e.tracker.Forget(key) {
		e.logger.Debug().Str("doc", key).Msg("fold: expansion memory cleared")
	}
}

// FoldCommand runs a pass on demand for the active document, whatever its
// language.
func (e *Engine) FoldCommand(ctx context.Context, active Document) (Decision, error) {
	return e.Pass(ctx, active)
}

// UnfoldClasses asks the host to unfold every class body of doc in one
// call and returns the class ranges.
func (e *Engine) UnfoldClasses(ctx context.Context, doc Document) ([]LineRange, error) {
	if doc == nil {
		return nil, nil
	}
	classes := e.Scanner().Classes(doc)
	if len(classes) == 0 {
		return nil, nil
	}
	if e.host == nil {
		return classes, ErrNoHost
	}

	e.unfoldRequests.Add(1)
	if err := e.host.Unfold(ctx, doc.Key(), StartLines(classes)); err != nil {
		e.hostErrors.Add(1)
		e.logger.Warn().Err(err).Str("doc", doc.Key()).Msg("fold: host unfold failed")
		return classes, &HostError{Command: "unfold", Key: doc.Key(), Err: err}
	}
	return classes, nil
}

// UnfoldAll asks the host to unfold everything in doc.
func (e *Engine) UnfoldAll(ctx context.Context, doc Document) error {
	if doc == nil {
		return nil
	}
	if e.host == nil {
		return ErrNoHost
	}

	e.unfoldRequests.Add(1)
	if err := e.host.UnfoldAll(ctx, doc.Key()); err != nil {
		e.hostErrors.Add(1)
		return &HostError{Command: "unfoldAll", Key: doc.Key(), Err: err}
	}
	return nil
}
