package view

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/docfold/internal/command"
)

// keymap holds a pending prefix key such as z.
type keymap struct {
	pending rune
}

func (v *Viewer) handleKey(ctx context.Context, ev *tcell.EventKey) {
	v.msg = ""
	if prefix := v.keys.pending; prefix != 0 {
		v.keys.pending = 0
		if ev.Key() == tcell.KeyRune {
			v.handlePrefixed(ctx, prefix, ev.Rune())
		}
		return
	}

	switch ev.Key() {
	case tcell.KeyCtrlC:
		v.quit = true
	case tcell.KeyTab:
		v.app.Next(ctx)
	case tcell.KeyDown:
		v.move(1)
	case tcell.KeyUp:
		v.move(-1)
	case tcell.KeyPgDn:
		v.page(1)
	case tcell.KeyPgUp:
		v.page(-1)
	case tcell.KeyHome:
		v.jump(false)
	case tcell.KeyEnd:
		v.jump(true)
	case tcell.KeyCtrlL:
		v.screen.Sync()
	case tcell.KeyRune:
		v.handleRune(ctx, ev.Rune())
	}
}

func (v *Viewer) handleRune(ctx context.Context, r rune) {
	switch r {
	case 'q':
		v.quit = true
	case 'j':
		v.move(1)
	case 'k':
		v.move(-1)
	case 'g':
		v.jump(false)
	case 'G':
		v.jump(true)
	case 'z':
		v.keys.pending = r
	case 'F':
		v.runCommand(ctx, command.FoldJSDoc)
	case 'U':
		v.runCommand(ctx, command.UnfoldClasses)
	case 'x':
		v.closeActive(ctx)
	}
}

// handlePrefixed runs the vim style fold keys: za toggle, zo open, zc
// close, zR open everything, zM close everything.
func (v *Viewer) handlePrefixed(ctx context.Context, prefix, r rune) {
	if prefix != 'z' {
		return
	}
	if r == 'R' {
		v.runCommand(ctx, command.UnfoldAll)
		return
	}

	doc, model, st := v.active()
	if doc == nil {
		return
	}
	switch r {
	case 'a':
		if !model.Toggle(st.cursor) {
			v.msg = "no fold here"
		}
	case 'o':
		model.Unfold(st.cursor)
	case 'c':
		model.Fold(st.cursor)
	case 'M':
		model.FoldAll()
	}
	st.cursor = model.Visible(st.cursor)
}

func (v *Viewer) move(n int) {
	doc, model, st := v.active()
	if doc == nil {
		return
	}
	st.cursor = model.NextVisible(st.cursor, n)
}

func (v *Viewer) page(n int) {
	doc, model, st := v.active()
	if doc == nil {
		return
	}
	step := n * max(v.textHeight()-1, 1)
	st.cursor = model.NextVisible(st.cursor, step)
	st.top = model.NextVisible(st.top, step)
}

func (v *Viewer) jump(end bool) {
	doc, model, st := v.active()
	if doc == nil {
		return
	}
	if !end {
		st.cursor, st.top = 0, 0
		return
	}
	st.cursor = model.Visible(max(model.Lines()-1, 0))
}
