package view

import (
	"sort"

	"github.com/dshills/docfold/internal/fold"
)

// Region is a foldable line range.
type Region struct {
	Range  fold.LineRange
	Folded bool
}

// FoldModel holds the foldable regions of one document and which of them
// are collapsed. Regions come from JSDoc blocks and class bodies and may
// nest. A folded region keeps its first line on screen and hides the rest.
type FoldModel struct {
	lines   int
	regions []Region // sorted by start, outer regions first
}

// NewFoldModel builds the regions of doc with scanner.
func NewFoldModel(doc fold.Document, scanner *fold.Scanner) *FoldModel {
	var ranges []fold.LineRange
	ranges = append(ranges, scanner.JSDoc(doc)...)
	ranges = append(ranges, scanner.Classes(doc)...)
	return NewFoldModelFromRanges(doc.LineCount(), ranges)
}

// NewFoldModelFromRanges builds a model over lines lines. Single line and
// duplicate ranges are dropped.
func NewFoldModelFromRanges(lines int, ranges []fold.LineRange) *FoldModel {
	m := &FoldModel{lines: lines}
	seen := make(map[[2]int]bool)
	for _, r := range ranges {
		key := [2]int{r.Start, r.End}
		if r.Start >= r.End || r.End >= lines || seen[key] {
			continue
		}
		seen[key] = true
		m.regions = append(m.regions, Region{Range: r})
	}
	sort.SliceStable(m.regions, func(i, j int) bool {
		a, b := m.regions[i].Range, m.regions[j].Range
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End > b.End
	})
	return m
}

// Lines returns the document line count.
func (m *FoldModel) Lines() int { return m.lines }

// Regions returns a copy of the regions.
func (m *FoldModel) Regions() []Region {
	return append([]Region(nil), m.regions...)
}

// find returns the index of the region starting at line, or else the
// innermost region containing it, or -1. The fold state of the regions is
// not considered: a command at a line always resolves to the same region.
func (m *FoldModel) find(line int) int {
	for i := range m.regions {
		if m.regions[i].Range.Start == line {
			return i
		}
	}
	best := -1
	for i := range m.regions {
		r := m.regions[i].Range
		if r.Contains(line) {
			if best == -1 || r.Lines() < m.regions[best].Range.Lines() {
				best = i
			}
		}
	}
	return best
}

// exact returns the index of the region covering exactly r, or -1.
func (m *FoldModel) exact(r fold.LineRange) int {
	for i := range m.regions {
		if m.regions[i].Range.Start == r.Start && m.regions[i].Range.End == r.End {
			return i
		}
	}
	return -1
}

// RegionAt returns the region starting at line or the innermost one
// containing it.
func (m *FoldModel) RegionAt(line int) (Region, bool) {
	i := m.find(line)
	if i < 0 {
		return Region{}, false
	}
	return m.regions[i], true
}

// Fold collapses the region at each line and returns how many changed.
// A line whose region is already folded is left alone; the enclosing
// region is never folded in its place.
func (m *FoldModel) Fold(lines ...int) int {
	n := 0
	for _, line := range lines {
		if i := m.find(line); i >= 0 && !m.regions[i].Folded {
			m.regions[i].Folded = true
			n++
		}
	}
	return n
}

// Unfold expands the region at each line and returns how many changed.
func (m *FoldModel) Unfold(lines ...int) int {
	n := 0
	for _, line := range lines {
		if i := m.find(line); i >= 0 && m.regions[i].Folded {
			m.regions[i].Folded = false
			n++
		}
	}
	return n
}

// FoldAll collapses every region and returns how many changed.
func (m *FoldModel) FoldAll() int {
	n := 0
	for i := range m.regions {
		if !m.regions[i].Folded {
			m.regions[i].Folded = true
			n++
		}
	}
	return n
}

// UnfoldAll expands every region and returns how many changed.
func (m *FoldModel) UnfoldAll() int {
	n := 0
	for i := range m.regions {
		if m.regions[i].Folded {
			m.regions[i].Folded = false
			n++
		}
	}
	return n
}

// Toggle flips the region at line. It reports whether a region was found.
func (m *FoldModel) Toggle(line int) bool {
	i := m.find(line)
	if i < 0 {
		return false
	}
	m.regions[i].Folded = !m.regions[i].Folded
	return true
}

// Folded returns the collapsed ranges.
func (m *FoldModel) Folded() []fold.LineRange {
	var out []fold.LineRange
	for _, r := range m.regions {
		if r.Folded {
			out = append(out, r.Range)
		}
	}
	return out
}

// FoldedAt reports whether a folded region starts at line.
func (m *FoldModel) FoldedAt(line int) (fold.LineRange, bool) {
	for _, r := range m.regions {
		if r.Folded && r.Range.Start == line {
			return r.Range, true
		}
	}
	return fold.LineRange{}, false
}

// StartsRegion reports whether any region starts at line.
func (m *FoldModel) StartsRegion(line int) bool {
	for _, r := range m.regions {
		if r.Range.Start == line {
			return true
		}
	}
	return false
}

// Hidden reports whether line is inside a folded region, past its first
// line.
func (m *FoldModel) Hidden(line int) bool {
	for _, r := range m.regions {
		if r.Folded && line > r.Range.Start && line <= r.Range.End {
			return true
		}
	}
	return false
}

// Visible returns the line itself when shown, or else the first line of the
// outermost folded region hiding it.
func (m *FoldModel) Visible(line int) int {
	for _, r := range m.regions {
		if r.Folded && line > r.Range.Start && line <= r.Range.End {
			return m.Visible(r.Range.Start)
		}
	}
	return line
}

// NextVisible returns the shown line n steps after line, negative n moving
// up. It stops at the document edges.
func (m *FoldModel) NextVisible(line, n int) int {
	line = m.Visible(line)
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for ; n > 0; n-- {
		next := line + step
		for next >= 0 && next < m.lines && m.Hidden(next) {
			next += step
		}
		if next < 0 || next >= m.lines {
			break
		}
		line = next
	}
	return line
}

// DisplayLines returns up to height shown lines starting at top.
func (m *FoldModel) DisplayLines(top, height int) []int {
	var out []int
	for line := m.Visible(top); line < m.lines && len(out) < height; line++ {
		if !m.Hidden(line) {
			out = append(out, line)
		}
	}
	return out
}

// VisibleRanges returns the shown lines of a window as runs of consecutive
// lines. Folds split runs; the first line of a folded region is visible.
func (m *FoldModel) VisibleRanges(doc fold.Document, top, height int) []fold.LineRange {
	var out []fold.LineRange
	for _, line := range m.DisplayLines(top, height) {
		if n := len(out); n > 0 && out[n-1].End == line-1 {
			out[n-1].End = line
			out[n-1].EndColumn = len(doc.Line(line))
			continue
		}
		r := fold.NewLineRange(line, line)
		r.EndColumn = len(doc.Line(line))
		out = append(out, r)
	}
	return out
}
