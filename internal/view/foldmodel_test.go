package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docfold/internal/fold"
)

const shapesJS = `/**
 * Adds two numbers.
 */
function add(a, b) {
  return a + b;
}

/**
 * A shape.
 */
class Shape {
  area() { return 0; }
}
`

func shapesDoc() *fold.Snapshot {
	return fold.NewSnapshot("file:///src/shapes.js", fold.LanguageJavaScript, shapesJS)
}

func TestFoldModel_Regions(t *testing.T) {
	m := NewFoldModel(shapesDoc(), fold.NewScanner())

	regions := m.Regions()
	require.Len(t, regions, 3)
	assert.Equal(t, 0, regions[0].Range.Start)
	assert.Equal(t, 7, regions[1].Range.Start)
	assert.Equal(t, fold.NewLineRange(10, 12), fold.NewLineRange(regions[2].Range.Start, regions[2].Range.End))
	assert.Empty(t, m.Folded())
	assert.Equal(t, 14, m.Lines())
}

func TestFoldModel_FoldHidesBody(t *testing.T) {
	m := NewFoldModel(shapesDoc(), fold.NewScanner())

	assert.Equal(t, 1, m.Fold(0))
	assert.Equal(t, 0, m.Fold(0), "already folded")

	assert.False(t, m.Hidden(0))
	assert.True(t, m.Hidden(1))
	assert.True(t, m.Hidden(2))
	assert.False(t, m.Hidden(3))
	assert.Equal(t, 0, m.Visible(2))

	r, ok := m.FoldedAt(0)
	require.True(t, ok)
	assert.Equal(t, 2, r.End)

	assert.Equal(t, []int{0, 3, 4, 5, 6}, m.DisplayLines(0, 5))
	assert.Equal(t, 3, m.NextVisible(0, 1))
	assert.Equal(t, 0, m.NextVisible(3, -1))
	assert.Equal(t, 0, m.NextVisible(0, -5), "stops at the top")
	assert.Equal(t, 13, m.NextVisible(10, 100), "stops at the bottom")
}

func TestFoldModel_VisibleRanges(t *testing.T) {
	doc := shapesDoc()
	m := NewFoldModel(doc, fold.NewScanner())
	m.Fold(0)

	got := m.VisibleRanges(doc, 0, 5)
	assert.Equal(t, []fold.LineRange{
		{Start: 0, End: 0, EndColumn: 3},
		{Start: 3, End: 6, EndColumn: 0},
	}, got)

	m.UnfoldAll()
	got = m.VisibleRanges(doc, 2, 3)
	assert.Equal(t, []fold.LineRange{{Start: 2, End: 4, EndColumn: len("  return a + b;")}}, got)
}

func TestFoldModel_ToggleInnermost(t *testing.T) {
	m := NewFoldModel(shapesDoc(), fold.NewScanner())

	require.True(t, m.Toggle(11), "line inside the class body")
	assert.True(t, m.Hidden(11))
	assert.Equal(t, 10, m.Visible(12))

	require.True(t, m.Toggle(10))
	assert.False(t, m.Hidden(11))

	assert.False(t, m.Toggle(6), "blank line outside every region")
}

func TestFoldModel_FoldedInnerKeepsOuterOpen(t *testing.T) {
	m := NewFoldModelFromRanges(6, []fold.LineRange{
		fold.NewLineRange(0, 5),
		fold.NewLineRange(1, 3),
	})

	assert.Equal(t, 1, m.Fold(1))
	assert.Equal(t, 0, m.Fold(1), "folding a folded region changes nothing")
	assert.Equal(t, 0, m.Fold(2), "a line inside the folded region resolves to it")
	assert.Equal(t, []int{1}, startLines(m))

	assert.Equal(t, 1, m.Fold(0))
	assert.Equal(t, 1, m.Unfold(1))
	assert.Equal(t, 0, m.Unfold(1), "unfolding an open region leaves the outer fold")
	assert.Equal(t, []int{0}, startLines(m))
}

func TestFoldModel_FoldAll(t *testing.T) {
	m := NewFoldModelFromRanges(10, []fold.LineRange{
		fold.NewLineRange(0, 9),
		fold.NewLineRange(0, 4),
		fold.NewLineRange(6, 8),
	})
	m.Fold(6)

	assert.Equal(t, 2, m.FoldAll(), "regions sharing a start line all fold")
	assert.Equal(t, 0, m.FoldAll())
	assert.Len(t, m.Folded(), 3)
}

func TestFoldModel_Nested(t *testing.T) {
	m := NewFoldModelFromRanges(10, []fold.LineRange{
		fold.NewLineRange(0, 9),
		fold.NewLineRange(2, 4),
		fold.NewLineRange(2, 4),
		fold.NewLineRange(5, 5),
		fold.NewLineRange(3, 20),
	})
	require.Len(t, m.Regions(), 2)

	assert.Equal(t, 1, m.Fold(2))
	assert.Equal(t, 1, m.Fold(0))
	assert.Equal(t, 0, m.Visible(3), "the outer fold wins")
	assert.Equal(t, []int{0}, m.DisplayLines(0, 10))

	assert.Equal(t, 1, m.Unfold(0))
	assert.True(t, m.Hidden(3), "the inner fold stays")
	assert.Equal(t, 2, m.Visible(3))

	r, ok := m.RegionAt(3)
	require.True(t, ok)
	assert.Equal(t, 2, r.Range.Start)

	assert.Equal(t, 1, m.UnfoldAll())
	assert.Empty(t, m.Folded())
}
