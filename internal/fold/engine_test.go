package fold

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenLines(lines ...string) *Snapshot {
	out := make([]string, 10)
	copy(out, lines)
	return NewSnapshotLines("file:///src/f.js", LanguageJavaScript, out)
}

func TestEngine_AttachedBlockNotFolded(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := tenLines("/**", " * f", " */", "export function f() {}")

	dec, err := e.Pass(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, []LineRange{{Start: 0, End: 2, EndColumn: 3}}, dec.Blocks)
	assert.Equal(t, dec.Blocks, dec.Attached)
	assert.Empty(t, dec.ToFold)
	assert.Empty(t, host.Calls(), "no fold command expected")
}

func TestEngine_BlankLineBreaksAttachment(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := tenLines("/**", " * f", " */", "", "doSomething();")

	dec, err := e.Pass(context.Background(), d)
	require.NoError(t, err)

	assert.Empty(t, dec.Attached)
	assert.Equal(t, []LineRange{{Start: 0, End: 2, EndColumn: 3}}, dec.ToFold)
	assert.Equal(t, []HostCall{{Command: "fold", Key: d.Key(), Lines: []int{0}}}, host.Calls())
}

func TestEngine_ExpandedBlockSkipped(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := tenLines("", "/**", " * a", " */", "a();", "", "/**", " * b", " */", "b();")

	expanded := e.VisibleRangesChanged(d, []LineRange{NewLineRange(5, 9)})
	assert.Equal(t, []LineRange{{Start: 6, End: 8, EndColumn: 3}}, expanded)

	dec, err := e.Pass(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []LineRange{{Start: 1, End: 3, EndColumn: 3}}, dec.ToFold)
	assert.Equal(t, []HostCall{{Command: "fold", Key: d.Key(), Lines: []int{1}}}, host.Calls())
}

func TestEngine_DisjointViewFoldsEverything(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := tenLines("/**", " */", "a();", "/**", " */", "b();")

	e.VisibleRangesChanged(d, []LineRange{NewLineRange(0, 5)})
	e.VisibleRangesChanged(d, []LineRange{NewLineRange(7, 9)})
	assert.Empty(t, e.Tracker().Expanded(d.Key()))

	dec, err := e.Pass(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, dec.FoldLines())
	require.Len(t, host.Calls(), 1, "all ranges folded in one call")
}

func TestEngine_CloseClearsMemory(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := tenLines("/**", " */", "a();")
	ctx := context.Background()

	e.VisibleRangesChanged(d, []LineRange{NewLineRange(0, 9)})
	dec, err := e.DocumentOpened(ctx, d)
	require.NoError(t, err)
	assert.Empty(t, dec.ToFold)

	e.DocumentClosed(d.Key())
	assert.False(t, e.Tracker().Has(d.Key()))

	dec, err = e.DocumentOpened(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, dec.FoldLines())
}

func TestEngine_Idempotent(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := tenLines("/**", " */", "a();")
	ctx := context.Background()

	first, err := e.ActiveEditorChanged(ctx, d)
	require.NoError(t, err)
	second, err := e.ActiveEditorChanged(ctx, d)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	calls := host.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0], calls[1])
}

func TestEngine_NoActiveDocument(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	ctx := context.Background()

	dec, err := e.ActiveEditorChanged(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, Decision{}, dec)

	_, err = e.FoldCommand(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, host.Calls())
	assert.Equal(t, PhaseIdle, e.Phase())
}

func TestEngine_IgnoresOtherLanguages(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	d := NewSnapshotLines("file:///x.py", "python", []string{"/**", " */", "x = 1"})
	ctx := context.Background()

	_, err := e.DocumentOpened(ctx, d)
	require.NoError(t, err)
	assert.Nil(t, e.VisibleRangesChanged(d, []LineRange{NewLineRange(0, 2)}))
	assert.Empty(t, host.Calls())

	// The explicit command runs on any document.
	_, err = e.FoldCommand(ctx, d)
	require.NoError(t, err)
	assert.Len(t, host.Calls(), 1)
}

func TestEngine_HostError(t *testing.T) {
	boom := errors.New("boom")
	host := &RecordingHost{Err: boom}
	e := NewEngine(host)
	d := tenLines("/**", " */")

	_, err := e.Pass(context.Background(), d)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var hostErr *HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "fold", hostErr.Command)
	assert.Equal(t, uint64(1), e.Stats().HostErrors)
}

func TestEngine_NoHost(t *testing.T) {
	e := NewEngine(nil)
	d := tenLines("/**", " */")

	dec := e.Decide(d)
	assert.Equal(t, []int{0}, dec.FoldLines())

	_, err := e.Pass(context.Background(), d)
	assert.ErrorIs(t, err, ErrNoHost)
}

func TestEngine_UnfoldClasses(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	ctx := context.Background()

	classes, err := e.UnfoldClasses(ctx, tenLines("class A {", "}", "class B {", "  m() {}", "}"))
	require.NoError(t, err)
	assert.Len(t, classes, 2)
	assert.Equal(t, []HostCall{{Command: "unfold", Key: "file:///src/f.js", Lines: []int{0, 2}}}, host.Calls())

	host.Reset()
	classes, err = e.UnfoldClasses(ctx, tenLines("f();"))
	require.NoError(t, err)
	assert.Empty(t, classes)
	assert.Empty(t, host.Calls())
}

func TestEngine_SetScanner(t *testing.T) {
	e := NewEngine(&RecordingHost{})
	d := tenLines("/** Summary", " */", "a();")

	assert.Empty(t, e.Decide(d).Blocks)

	e.SetScanner(NewScanner(WithStartMatch(MatchPrefix)))
	assert.Len(t, e.Decide(d).Blocks, 1)
}

func TestEngine_Stats(t *testing.T) {
	host := &RecordingHost{}
	e := NewEngine(host)
	ctx := context.Background()

	_, _ = e.Pass(ctx, tenLines("/**", " */", "a();", "/**", " */"))
	_, _ = e.Pass(ctx, tenLines("a();"))
	require.NoError(t, e.UnfoldAll(ctx, tenLines()))

	st := e.Stats()
	assert.Equal(t, uint64(2), st.Passes)
	assert.Equal(t, uint64(1), st.FoldRequests)
	assert.Equal(t, uint64(2), st.RangesFolded)
	assert.Equal(t, uint64(1), st.UnfoldRequests)
}
