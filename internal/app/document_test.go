package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docfold/internal/fold"
)

func TestDocumentManager_OpenCloseActive(t *testing.T) {
	dm := NewDocumentManager()
	dir := t.TempDir()

	a, opened, err := dm.Open(writeTemp(t, "a.js", "x\n"))
	require.NoError(t, err)
	assert.True(t, opened)
	assert.Equal(t, "a.js", a.Name)
	assert.False(t, a.IsScratch())

	again, opened, err := dm.Open(a.Path)
	require.NoError(t, err)
	assert.False(t, opened)
	assert.Same(t, a, again)

	_, _, err = dm.Open(filepath.Join(dir, "missing.js"))
	assert.Error(t, err)

	b := dm.OpenContent("", "y")
	assert.True(t, b.IsScratch())
	assert.Equal(t, "Untitled-1", b.Name)
	assert.Equal(t, fold.LanguagePlainText, b.LanguageID())
	assert.Same(t, b, dm.Active())
	assert.Equal(t, 2, dm.Count())

	closed, err := dm.Close(b.Key())
	require.NoError(t, err)
	assert.Same(t, b, closed)
	assert.Same(t, a, dm.Active(), "focus falls back to the last opened document")

	_, err = dm.SetActive("nope")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	dm.ClearActive()
	assert.Nil(t, dm.Active())
	assert.Same(t, a, dm.Next(), "next with nothing focused picks the first document")

	_, err = dm.Close(a.Key())
	require.NoError(t, err)
	assert.Nil(t, dm.Active())
	assert.Nil(t, dm.Next())
	assert.Empty(t, dm.All())
}

func TestDocument_Key(t *testing.T) {
	path := writeTemp(t, "k.ts", "let x = 1\n")
	doc := NewDocument(path, []byte("let x = 1\n"))

	assert.Equal(t, fold.DocumentKey(path), doc.Key())
	assert.Equal(t, fold.LanguageTypeScript, doc.LanguageID())
	assert.Equal(t, "let x = 1", doc.Line(0))
}
