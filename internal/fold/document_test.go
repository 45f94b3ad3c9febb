package fold

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot("k", LanguageTypeScript, "a\r\nb\nc")
	assert.Equal(t, 3, s.LineCount())
	assert.Equal(t, "a", s.Line(0))
	assert.Equal(t, "c", s.Line(2))
	assert.Equal(t, "", s.Line(3))
	assert.Equal(t, "", s.Line(-1))
	assert.Equal(t, "a\nb\nc", s.Text())

	empty := NewSnapshot("k", LanguageJavaScript, "")
	assert.Equal(t, 1, empty.LineCount())
	assert.Equal(t, 1, NewSnapshotLines("k", LanguageJavaScript, nil).LineCount())
}

func TestDocumentKey(t *testing.T) {
	key := DocumentKey("/tmp/a b.js")
	assert.True(t, strings.HasPrefix(key, "file:///"))
	assert.Equal(t, key, DocumentKey("/tmp/../tmp/a b.js"))
}

func TestLineRange(t *testing.T) {
	r := NewLineRange(5, 2)
	assert.Equal(t, 2, r.Start)
	assert.Equal(t, 5, r.End)
	assert.Equal(t, 4, r.Lines())
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(6))
	assert.True(t, r.Intersects(NewLineRange(5, 9)))
	assert.False(t, r.Intersects(NewLineRange(6, 9)))
	assert.True(t, r.Equal(LineRange{Start: 2, End: 5, EndColumn: 42}))
	assert.Equal(t, "[2,5]", r.String())

	got := Subtract(
		[]LineRange{NewLineRange(0, 1), NewLineRange(3, 4), NewLineRange(6, 7)},
		[]LineRange{NewLineRange(3, 4)},
		[]LineRange{NewLineRange(6, 8)},
	)
	assert.Equal(t, []LineRange{NewLineRange(0, 1), NewLineRange(6, 7)}, got)
}

func TestDetectLanguage(t *testing.T) {
	tests := map[string]string{
		"a.js":        LanguageJavaScript,
		"A.JSX":       LanguageJavaScript,
		"lib/x.mjs":   LanguageJavaScript,
		"a.ts":        LanguageTypeScript,
		"comp.tsx":    LanguageTypeScript,
		"noext":       LanguagePlainText,
		"a.unknown42": LanguagePlainText,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectLanguage(path), path)
	}

	goID := DetectLanguage("main.go")
	assert.NotEmpty(t, goID)
	assert.False(t, IsSupported(goID))
	assert.True(t, IsSupported(LanguageTypeScript))
}
