package view

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/docfold/internal/fold"
)

// span is a styled run of one line, in bytes.
type span struct {
	start, end int
	style      tcell.Style
}

// Highlighter colours document lines with a chroma style.
type Highlighter struct {
	style *chroma.Style
}

// NewHighlighter returns a highlighter for the named chroma style, or nil
// when theme is empty or unknown.
func NewHighlighter(theme string) *Highlighter {
	if theme == "" {
		return nil
	}
	sty, ok := styles.Registry[theme]
	if !ok {
		return nil
	}
	return &Highlighter{style: sty}
}

// Lines tokenises doc and returns the spans of every line. A nil
// highlighter or an unknown language yields nil.
func (h *Highlighter) Lines(doc fold.Document) [][]span {
	if h == nil {
		return nil
	}
	lex := lexers.Get(doc.LanguageID())
	if lex == nil {
		return nil
	}
	lex = chroma.Coalesce(lex)

	text := make([]string, doc.LineCount())
	for i := range text {
		text[i] = doc.Line(i)
	}
	it, err := lex.Tokenise(nil, strings.Join(text, "\n")+"\n")
	if err != nil {
		return nil
	}

	out := make([][]span, len(text))
	for i, tokens := range chroma.SplitTokensIntoLines(it.Tokens()) {
		if i >= len(out) {
			break
		}
		col := 0
		for _, tok := range tokens {
			value := strings.TrimSuffix(tok.Value, "\n")
			if value == "" {
				continue
			}
			out[i] = append(out[i], span{
				start: col,
				end:   col + len(value),
				style: h.tcellStyle(tok.Type),
			})
			col += len(value)
		}
	}
	return out
}

func (h *Highlighter) tcellStyle(tt chroma.TokenType) tcell.Style {
	entry := h.style.Get(tt)
	st := tcell.StyleDefault
	if entry.Colour.IsSet() {
		st = st.Foreground(tcell.NewRGBColor(
			int32(entry.Colour.Red()),
			int32(entry.Colour.Green()),
			int32(entry.Colour.Blue()),
		))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	return st
}

// styleAt returns the style of byte offset col within spans.
func styleAt(spans []span, col int) tcell.Style {
	for _, s := range spans {
		if col >= s.start && col < s.end {
			return s.style
		}
	}
	return tcell.StyleDefault
}
