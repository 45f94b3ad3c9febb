package view

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
)

const (
	markerFolded   = '▸'
	markerExpanded = '▾'
	markerWidth    = 2
)

var (
	styleGutter  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleCurrent = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleMarker  = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleSummary = tcell.StyleDefault.Foreground(tcell.ColorGray).Italic(true)
	styleStatus  = tcell.StyleDefault.Reverse(true)
	styleEmpty   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

const statusHint = "F fold  za toggle  zR unfold all  Tab next  x close  q quit "

func (v *Viewer) draw() {
	s := v.screen
	s.Clear()
	w, h := s.Size()

	doc, model, st := v.active()
	if doc == nil {
		s.HideCursor()
		drawString(s, 0, 0, w, "No document open. Press q to quit.", styleEmpty)
		v.drawStatus(w, h-1, " docfold")
		s.Show()
		return
	}

	v.scroll(model, st)
	if st.spans == nil {
		st.spans = v.hl.Lines(doc)
	}

	numWidth := 0
	if v.cfg.LineNumbers {
		numWidth = len(strconv.Itoa(doc.LineCount())) + 1
	}
	textX := numWidth + markerWidth

	s.HideCursor()
	for row, line := range model.DisplayLines(st.top, v.textHeight()) {
		if numWidth > 0 {
			style := styleGutter
			if line == st.cursor {
				style = styleCurrent
			}
			drawString(s, 0, row, w, fmt.Sprintf("%*d ", numWidth-1, line+1), style)
		}

		if r, folded := model.FoldedAt(line); folded {
			s.SetContent(numWidth, row, markerFolded, nil, styleMarker)
			x := v.drawText(textX, row, w, doc.Line(line), st.lineSpans(line))
			drawString(s, x, row, w, fmt.Sprintf(" … %d lines", r.End-r.Start), styleSummary)
		} else {
			if model.StartsRegion(line) {
				s.SetContent(numWidth, row, markerExpanded, nil, styleMarker)
			}
			v.drawText(textX, row, w, doc.Line(line), st.lineSpans(line))
		}

		if line == st.cursor {
			s.ShowCursor(textX, row)
		}
	}

	status := fmt.Sprintf(" %s  [%s]  %d/%d  folded %d",
		doc.Name, doc.LanguageID(), st.cursor+1, doc.LineCount(), len(model.Folded()))
	if v.keys.pending != 0 {
		status += "  " + string(v.keys.pending) + "-"
	}
	v.drawStatus(w, h-1, status)
	s.Show()
}

func (st *docState) lineSpans(line int) []span {
	if line < len(st.spans) {
		return st.spans[line]
	}
	return nil
}

// drawText draws one document line with tabs expanded and returns the
// column after it.
func (v *Viewer) drawText(x, y, width int, text string, spans []span) int {
	tab := max(v.cfg.TabWidth, 1)
	col := x
	for i, r := range text {
		if col >= width {
			break
		}
		style := styleAt(spans, i)
		if r == '\t' {
			next := x + ((col-x)/tab+1)*tab
			for ; col < next && col < width; col++ {
				v.screen.SetContent(col, y, ' ', nil, style)
			}
			continue
		}
		v.screen.SetContent(col, y, r, nil, style)
		col++
	}
	return col
}

func (v *Viewer) drawStatus(width, y int, left string) {
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
	if v.msg != "" {
		left += "  " + v.msg
	}
	end := drawString(v.screen, 0, y, width, left, styleStatus)
	if hint := len([]rune(statusHint)); width-hint > end+1 {
		drawString(v.screen, width-hint, y, width, statusHint, styleStatus)
	}
}

// drawString draws s from x, clipped at width, and returns the next column.
func drawString(screen tcell.Screen, x, y, width int, s string, style tcell.Style) int {
	for _, r := range s {
		if x >= width {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
