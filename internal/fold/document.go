package fold

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Document is read access to one open file's text.
type Document interface {
	// Key is the stable identity of the document, e.g. a file URI.
	Key() string

	// LanguageID is the language of the document ("javascript", "typescript", ...).
	LanguageID() string

	// LineCount returns the number of lines. An empty document has one line.
	LineCount() int

	// Line returns the text of line i without its line terminator.
	Line(i int) string
}

// Snapshot is an immutable Document built from text.
type Snapshot struct {
	key        string
	languageID string
	lines      []string
}

// NewSnapshot splits text into lines and returns a snapshot.
// Both "\n" and "\r\n" terminators are accepted.
func NewSnapshot(key, languageID, text string) *Snapshot {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return &Snapshot{key: key, languageID: languageID, lines: lines}
}

// NewSnapshotLines returns a snapshot over already split lines.
// The slice is copied.
func NewSnapshotLines(key, languageID string, lines []string) *Snapshot {
	if len(lines) == 0 {
		lines = []string{""}
	}
	return &Snapshot{
		key:        key,
		languageID: languageID,
		lines:      append([]string(nil), lines...),
	}
}

// Key implements Document.
func (s *Snapshot) Key() string { return s.key }

// LanguageID implements Document.
func (s *Snapshot) LanguageID() string { return s.languageID }

// LineCount implements Document.
func (s *Snapshot) LineCount() int { return len(s.lines) }

// Line implements Document. Out of range indexes return "".
func (s *Snapshot) Line(i int) string {
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return s.lines[i]
}

// Text joins the lines back with "\n".
func (s *Snapshot) Text() string {
	return strings.Join(s.lines, "\n")
}

// DocumentKey returns the file URI used to identify the document at path.
func DocumentKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
