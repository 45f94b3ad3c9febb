package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/docfold/internal/fold"
)

// ErrUnknownDocument is returned for fold commands on a document the host
// has no model for.
var ErrUnknownDocument = errors.New("unknown document")

// Host executes fold commands against per-document fold models. It
// implements fold.Host.
//
// Regions come from the scanner a model was built with. When the scanner
// source returns a different scanner, as after a config reload, the model
// is rebuilt and regions that survive keep their fold state.
type Host struct {
	mu       sync.Mutex
	entries  map[string]*hostEntry
	source   func() *fold.Scanner
	onChange func(key string)
}

type hostEntry struct {
	doc     fold.Document
	scanner *fold.Scanner
	model   *FoldModel
}

// NewHost creates an empty host. onChange, when set, is called after a
// command changed a model.
func NewHost(onChange func(key string)) *Host {
	return &Host{
		entries:  make(map[string]*hostEntry),
		onChange: onChange,
	}
}

// SetScannerSource sets the function returning the scanner models are
// expected to be built with.
func (h *Host) SetScannerSource(fn func() *fold.Scanner) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = fn
}

// Attach builds the fold model of doc with scanner unless one built with
// the same scanner exists, and returns it.
func (h *Host) Attach(doc fold.Document, scanner *fold.Scanner) *FoldModel {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.entries[doc.Key()]
	if !ok {
		e = &hostEntry{doc: doc, scanner: scanner, model: NewFoldModel(doc, scanner)}
		h.entries[doc.Key()] = e
		return e.model
	}
	h.rebuild(e, scanner)
	return e.model
}

// Detach drops the model of key.
func (h *Host) Detach(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, key)
}

// Model returns the model of key.
func (h *Host) Model(key string) (*FoldModel, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.lookup(key)
	if !ok {
		return nil, false
	}
	return e.model, true
}

// lookup returns the entry of key, rebuilt first if the scanner source
// has moved on. h.mu must be held.
func (h *Host) lookup(key string) (*hostEntry, bool) {
	e, ok := h.entries[key]
	if !ok {
		return nil, false
	}
	if h.source != nil {
		h.rebuild(e, h.source())
	}
	return e, true
}

// rebuild replaces the model of e when scanner differs from the one it was
// built with. Folded regions with the same range stay folded.
func (h *Host) rebuild(e *hostEntry, scanner *fold.Scanner) {
	if scanner == nil || scanner == e.scanner {
		return
	}
	m := NewFoldModel(e.doc, scanner)
	for _, r := range e.model.Folded() {
		if i := m.exact(r); i >= 0 {
			m.regions[i].Folded = true
		}
	}
	e.scanner = scanner
	e.model = m
}

// Fold implements fold.Host.
func (h *Host) Fold(_ context.Context, key string, lines []int) error {
	return h.apply(key, func(m *FoldModel) int { return m.Fold(lines...) })
}

// Unfold implements fold.Host.
func (h *Host) Unfold(_ context.Context, key string, lines []int) error {
	return h.apply(key, func(m *FoldModel) int { return m.Unfold(lines...) })
}

// UnfoldAll implements fold.Host.
func (h *Host) UnfoldAll(_ context.Context, key string) error {
	return h.apply(key, func(m *FoldModel) int { return m.UnfoldAll() })
}

func (h *Host) apply(key string, fn func(*FoldModel) int) error {
	h.mu.Lock()
	e, ok := h.lookup(key)
	changed := 0
	if ok {
		changed = fn(e.model)
	}
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, key)
	}
	if changed > 0 && h.onChange != nil {
		h.onChange(key)
	}
	return nil
}
