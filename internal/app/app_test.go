package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docfold/internal/command"
	"github.com/dshills/docfold/internal/config"
	"github.com/dshills/docfold/internal/event"
	"github.com/dshills/docfold/internal/event/events"
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

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestApp builds an application whose passes run inline.
func newTestApp(t *testing.T, mutate func(*config.Config)) (*Application, *fold.RecordingHost) {
	t.Helper()
	cfg := config.Default()
	cfg.Fold.DelayMS = 0
	if mutate != nil {
		mutate(cfg)
	}

	host := &fold.RecordingHost{}
	app, err := New(Options{Config: cfg, Host: host, Load: config.LoadOptions{SkipEnv: true}})
	require.NoError(t, err)
	t.Cleanup(app.Shutdown)
	return app, host
}

func foldCalls(host *fold.RecordingHost) []fold.HostCall {
	var out []fold.HostCall
	for _, c := range host.Calls() {
		if c.Command == "fold" {
			out = append(out, c)
		}
	}
	return out
}

func TestApplication_OpenFoldsFreeStandingBlocks(t *testing.T) {
	app, host := newTestApp(t, nil)
	ctx := context.Background()

	doc, err := app.Open(ctx, writeTemp(t, "shapes.js", shapesJS))
	require.NoError(t, err)
	assert.Equal(t, fold.LanguageJavaScript, doc.LanguageID())

	calls := foldCalls(host)
	require.Len(t, calls, 2, "open and focus each run an independent pass")
	for _, c := range calls {
		assert.Equal(t, doc.Key(), c.Key)
		assert.Equal(t, []int{0}, c.Lines, "the class doc block stays open")
	}

	// Reopening an open file only refocuses it.
	host.Reset()
	_, err = app.Open(ctx, doc.Path)
	require.NoError(t, err)
	assert.Len(t, foldCalls(host), 1)
	assert.Equal(t, 1, app.Documents().Count())
}

func TestApplication_ExpandedBlocksStayOpen(t *testing.T) {
	app, host := newTestApp(t, nil)
	ctx := context.Background()

	doc, err := app.Open(ctx, writeTemp(t, "shapes.js", shapesJS))
	require.NoError(t, err)

	require.NoError(t, app.UpdateVisible(ctx, doc.Key(), []fold.LineRange{fold.NewLineRange(0, 5)}))
	assert.Len(t, app.Engine().Tracker().Expanded(doc.Key()), 1)

	host.Reset()
	_, err = app.Activate(ctx, doc.Key())
	require.NoError(t, err)
	assert.Empty(t, foldCalls(host), "the expanded block is remembered")

	assert.ErrorIs(t, app.UpdateVisible(ctx, "file:///nope.js", nil), ErrDocumentNotFound)
}

func TestApplication_CloseForgetsExpansion(t *testing.T) {
	app, host := newTestApp(t, nil)
	ctx := context.Background()

	doc, err := app.Open(ctx, writeTemp(t, "shapes.js", shapesJS))
	require.NoError(t, err)
	require.NoError(t, app.UpdateVisible(ctx, doc.Key(), []fold.LineRange{fold.NewLineRange(0, 2)}))
	require.True(t, app.Engine().Tracker().Has(doc.Key()))

	host.Reset()
	require.NoError(t, app.Close(ctx, doc.Key()))
	assert.False(t, app.Engine().Tracker().Has(doc.Key()))
	assert.Nil(t, app.ActiveDocument())
	assert.Empty(t, host.Calls(), "no active document means no pass")

	assert.ErrorIs(t, app.Close(ctx, doc.Key()), ErrDocumentNotFound)

	// Reopening starts from an empty expansion set.
	_, err = app.Open(ctx, doc.Path)
	require.NoError(t, err)
	require.NotEmpty(t, foldCalls(host))
	assert.Equal(t, []int{0}, foldCalls(host)[0].Lines)
}

func TestApplication_OtherLanguagesIgnoredUntilCommand(t *testing.T) {
	app, host := newTestApp(t, nil)
	ctx := context.Background()

	doc, err := app.OpenContent(ctx, "notes.txt", "/**\n * hi\n */\nplain\n")
	require.NoError(t, err)
	assert.Empty(t, host.Calls())

	require.NoError(t, app.ExecuteCommand(ctx, command.FoldJSDoc))
	calls := foldCalls(host)
	require.Len(t, calls, 1)
	assert.Equal(t, doc.Key(), calls[0].Key)
	assert.Equal(t, []int{0}, calls[0].Lines)
}

func TestApplication_Commands(t *testing.T) {
	app, host := newTestApp(t, nil)
	ctx := context.Background()

	var executed []events.CommandExecuted
	_, err := event.Subscribe(app.Bus(), events.TopicCommandExecuted, func(_ context.Context, evt event.Event[events.CommandExecuted]) error {
		executed = append(executed, evt.Payload)
		return nil
	})
	require.NoError(t, err)

	// With nothing focused the commands do nothing.
	require.NoError(t, app.ExecuteCommand(ctx, command.FoldJSDoc))
	require.NoError(t, app.ExecuteCommand(ctx, command.UnfoldAll))
	assert.Empty(t, host.Calls())

	doc, err := app.Open(ctx, writeTemp(t, "shapes.js", shapesJS))
	require.NoError(t, err)
	host.Reset()

	require.NoError(t, app.ExecuteCommand(ctx, command.UnfoldClasses))
	require.NoError(t, app.ExecuteCommand(ctx, command.UnfoldAll))
	assert.Equal(t, []fold.HostCall{
		{Command: "unfold", Key: doc.Key(), Lines: []int{10}},
		{Command: "unfoldAll", Key: doc.Key()},
	}, host.Calls())

	err = app.ExecuteCommand(ctx, "docfold.nope")
	assert.ErrorIs(t, err, command.ErrUnknownCommand)

	require.Len(t, executed, 5)
	assert.ErrorIs(t, executed[4].Err, command.ErrUnknownCommand)

	cmd, ok := app.Commands().FindByTitle("Fold JSDoc Comments")
	require.True(t, ok)
	assert.Equal(t, command.FoldJSDoc, cmd.Name)
}

func TestApplication_NoHost(t *testing.T) {
	cfg := config.Default()
	cfg.Fold.DelayMS = 0
	app, err := New(Options{Config: cfg})
	require.NoError(t, err)
	defer app.Shutdown()

	ctx := context.Background()
	_, err = app.Open(ctx, writeTemp(t, "shapes.js", shapesJS))
	require.NoError(t, err, "scheduled pass failures are logged, not returned")

	err = app.ExecuteCommand(ctx, command.FoldJSDoc)
	assert.ErrorIs(t, err, fold.ErrNoHost)

	host := &fold.RecordingHost{}
	app.SetHost(host)
	require.NoError(t, app.ExecuteCommand(ctx, command.FoldJSDoc))
	assert.Len(t, host.Calls(), 1)
}

func TestApplication_NextAndBlur(t *testing.T) {
	app, host := newTestApp(t, nil)
	ctx := context.Background()

	a, err := app.Open(ctx, writeTemp(t, "a.js", shapesJS))
	require.NoError(t, err)
	b, err := app.Open(ctx, writeTemp(t, "b.ts", shapesJS))
	require.NoError(t, err)
	assert.Equal(t, fold.LanguageTypeScript, b.LanguageID())

	assert.Equal(t, a.Key(), app.Next(ctx).Key())
	assert.Equal(t, b.Key(), app.Next(ctx).Key())

	host.Reset()
	app.Blur(ctx)
	assert.Nil(t, app.ActiveDocument())
	assert.Empty(t, host.Calls())
}

func TestApplication_ReloadConfig(t *testing.T) {
	path := writeTemp(t, "docfold.toml", "[fold]\nstart_match = \"exact\"\n")

	cfg, err := config.Load(config.LoadOptions{File: path, SkipEnv: true})
	require.NoError(t, err)

	host := &fold.RecordingHost{}
	app, err := New(Options{
		Config: cfg,
		Load:   config.LoadOptions{File: path, SkipEnv: true},
		Host:   host,
		Overrides: func(c *config.Config) {
			c.Fold.DelayMS = 0
		},
	})
	require.NoError(t, err)
	defer app.Shutdown()

	var reloaded, failed int
	_, _ = event.Subscribe(app.Bus(), events.TopicConfigReloaded, func(context.Context, event.Event[events.ConfigReloaded]) error {
		reloaded++
		return nil
	})
	_, _ = event.Subscribe(app.Bus(), events.TopicConfigReloadFailed, func(context.Context, event.Event[events.ConfigReloadFailed]) error {
		failed++
		return nil
	})

	ctx := context.Background()
	require.NoError(t, os.WriteFile(path, []byte("[fold]\nstart_match = \"prefix\"\n"), 0o644))
	require.NoError(t, app.ReloadConfig(ctx))
	assert.Equal(t, fold.MatchPrefix, app.Engine().Scanner().StartMatch())
	assert.Equal(t, 0, app.Config().Fold.DelayMS, "overrides survive reloads")
	assert.Equal(t, 1, reloaded)

	require.NoError(t, os.WriteFile(path, []byte("[fold]\nstart_match = \"fuzzy\"\n"), 0o644))
	err = app.ReloadConfig(ctx)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, fold.MatchPrefix, app.Engine().Scanner().StartMatch(), "previous config stays")
	assert.Equal(t, 1, failed)
}

func TestApplication_PluginAttachRule(t *testing.T) {
	script := writeTemp(t, "functions.lua", `
docfold.attach_rule(function(line)
  return string.sub(line, 1, 9) == "function "
end)
docfold.command("functions.hello", "Say Hello", function() end)
`)
	broken := writeTemp(t, "broken.lua", `not lua at all`)

	var logs bytes.Buffer
	cfg := config.Default()
	cfg.Fold.DelayMS = 0
	cfg.Plugins.Scripts = []string{broken, script}

	host := &fold.RecordingHost{}
	app, err := New(Options{
		Config: cfg,
		Host:   host,
		Logger: NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &logs}),
	})
	require.NoError(t, err)
	defer app.Shutdown()

	require.Len(t, app.Plugins(), 1)
	assert.True(t, strings.Contains(logs.String(), "skipping plugin"))

	_, err = app.Open(context.Background(), writeTemp(t, "shapes.js", shapesJS))
	require.NoError(t, err)
	assert.Empty(t, host.Calls(), "both blocks are attached now")

	_, ok := app.Commands().Get("functions.hello")
	assert.True(t, ok)
}

func TestApplication_Shutdown(t *testing.T) {
	app, _ := newTestApp(t, nil)
	app.Shutdown()
	app.Shutdown()

	_, err := app.OpenContent(context.Background(), "a.js", "")
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Error(t, app.Context().Err())
}
