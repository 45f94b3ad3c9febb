// Package events defines the payloads and topics published on the event bus.
package events

import (
	"github.com/dshills/docfold/internal/event/topic"
	"github.com/dshills/docfold/internal/fold"
)

// Document and editor event topics.
const (
	// TopicDocumentOpened is published when a document is opened.
	TopicDocumentOpened topic.Topic = "document.opened"

	// TopicDocumentClosed is published when a document's tab is closed.
	TopicDocumentClosed topic.Topic = "document.closed"

	// TopicActiveEditorChanged is published when focus moves to another
	// document, or to none.
	TopicActiveEditorChanged topic.Topic = "editor.active.changed"

	// TopicVisibleRangesChanged is published when the lines shown in an
	// editor change through scrolling, resizing or folding.
	TopicVisibleRangesChanged topic.Topic = "editor.visibleRanges.changed"

	// TopicDocumentAll matches every document event.
	TopicDocumentAll topic.Topic = "document.*"

	// TopicEditorAll matches every editor event.
	TopicEditorAll topic.Topic = "editor.**"
)

// DocumentOpened is published when a document is opened.
type DocumentOpened struct {
	// Document is the opened document.
	Document fold.Document

	// Path is the file path, empty for scratch documents.
	Path string
}

// DocumentClosed is published when a document is closed.
type DocumentClosed struct {
	// Key identifies the closed document.
	Key string

	// Path is the file path, empty for scratch documents.
	Path string
}

// ActiveEditorChanged is published when the focused document changes.
type ActiveEditorChanged struct {
	// Document is the newly focused document, nil when no editor is focused.
	Document fold.Document
}

// VisibleRangesChanged is published when the visible lines of an editor change.
type VisibleRangesChanged struct {
	// Document is the document shown in the editor.
	Document fold.Document

	// Visible are the line ranges currently on screen.
	Visible []fold.LineRange
}
