package app

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/dshills/docfold/internal/fold"
)

// Document is an open file. It embeds the immutable text snapshot the fold
// engine scans.
type Document struct {
	*fold.Snapshot

	// Path is the absolute file path, empty for scratch documents.
	Path string

	// Name is the display name.
	Name string
}

// NewDocument creates a document for the file at path with content.
func NewDocument(path string, content []byte) *Document {
	return &Document{
		Snapshot: fold.NewSnapshot(fold.DocumentKey(path), fold.DetectLanguage(path), string(content)),
		Path:     path,
		Name:     filepath.Base(path),
	}
}

// IsScratch reports whether the document has no backing file.
func (d *Document) IsScratch() bool {
	return d.Path == ""
}

// DocumentManager manages all open documents.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document // key -> document
	active    *Document
	order     []string // open order, for navigation
	counter   int      // scratch document numbering
}

// NewDocumentManager creates a new document manager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
	}
}

// Open opens a document from a file and makes it active. An already open
// file is returned as is with opened false.
func (dm *DocumentManager) Open(path string) (doc *Document, opened bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false, err
	}
	key := fold.DocumentKey(absPath)

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.documents[key]; exists {
		dm.active = doc
		return doc, false, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, false, err
	}

	doc = NewDocument(absPath, content)
	dm.add(doc)
	return doc, true, nil
}

// OpenContent opens an unsaved document holding text. The language is
// detected from name.
func (dm *DocumentManager) OpenContent(name, text string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.counter++
	if name == "" {
		name = "Untitled-" + strconv.Itoa(dm.counter)
	}
	doc := &Document{
		Snapshot: fold.NewSnapshot("untitled:"+strconv.Itoa(dm.counter)+"/"+name, fold.DetectLanguage(name), text),
		Name:     name,
	}
	dm.add(doc)
	return doc
}

func (dm *DocumentManager) add(doc *Document) {
	dm.documents[doc.Key()] = doc
	dm.order = append(dm.order, doc.Key())
	dm.active = doc
}

// Close closes a document by key. If it was active, the most recently
// opened remaining document becomes active.
func (dm *DocumentManager) Close(key string) (*Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, exists := dm.documents[key]
	if !exists {
		return nil, ErrDocumentNotFound
	}
	delete(dm.documents, key)

	for i, k := range dm.order {
		if k == key {
			dm.order = append(dm.order[:i], dm.order[i+1:]...)
			break
		}
	}

	if dm.active == doc {
		dm.active = nil
		if len(dm.order) > 0 {
			dm.active = dm.documents[dm.order[len(dm.order)-1]]
		}
	}
	return doc, nil
}

// Active returns the currently active document, or nil.
func (dm *DocumentManager) Active() *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.active
}

// SetActive makes the document with key active.
func (dm *DocumentManager) SetActive(key string) (*Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, exists := dm.documents[key]
	if !exists {
		return nil, ErrDocumentNotFound
	}
	dm.active = doc
	return doc, nil
}

// ClearActive leaves no document focused.
func (dm *DocumentManager) ClearActive() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.active = nil
}

// Get returns a document by key.
func (dm *DocumentManager) Get(key string) (*Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, exists := dm.documents[key]
	return doc, exists
}

// All returns all open documents in open order.
func (dm *DocumentManager) All() []*Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]*Document, 0, len(dm.order))
	for _, key := range dm.order {
		docs = append(docs, dm.documents[key])
	}
	return docs
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// Next activates and returns the document after the active one, wrapping
// around. It returns nil when nothing is open.
func (dm *DocumentManager) Next() *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if len(dm.order) == 0 {
		return nil
	}
	if dm.active == nil {
		dm.active = dm.documents[dm.order[0]]
		return dm.active
	}

	for i, key := range dm.order {
		if key == dm.active.Key() {
			dm.active = dm.documents[dm.order[(i+1)%len(dm.order)]]
			break
		}
	}
	return dm.active
}
