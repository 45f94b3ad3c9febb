package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/docfold/internal/command"
	"github.com/dshills/docfold/internal/config"
	"github.com/dshills/docfold/internal/config/watcher"
	"github.com/dshills/docfold/internal/event"
	"github.com/dshills/docfold/internal/event/events"
	"github.com/dshills/docfold/internal/event/topic"
	"github.com/dshills/docfold/internal/fold"
	pluginlua "github.com/dshills/docfold/internal/plugin/lua"
)

// Options configures New.
type Options struct {
	// Config is the initial configuration. Nil means config.Default().
	Config *config.Config

	// Load describes where Config came from. ReloadConfig reads the same
	// sources again.
	Load config.LoadOptions

	// Overrides is applied after every load, so command-line flags keep
	// precedence across reloads.
	Overrides func(*config.Config)

	// WatchConfig reloads the configuration when Load.File changes.
	WatchConfig bool

	// Logger receives application logs. Nil means NullLogger.
	Logger *Logger

	// Host receives fold commands. It may also be attached later with
	// SetHost.
	Host fold.Host

	// Executor runs scheduled passes. Nil runs them on the timer goroutine.
	Executor fold.Executor
}

// Application owns every docfold component for one session.
type Application struct {
	mu   sync.RWMutex
	cfg  *config.Config
	opts Options

	logger    *Logger
	bus       event.Bus
	docs      *DocumentManager
	host      *hostAdapter
	engine    *fold.Engine
	scheduler *fold.Scheduler
	commands  *command.Registry
	plugins   []*pluginlua.Plugin
	watcher   *watcher.Watcher
	subs      *subscriptionManager

	ctx      context.Context
	cancel   context.CancelFunc
	shutdown atomic.Bool
}

// New builds and starts an application.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = NullLogger
	}

	app := &Application{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		bus:      event.NewBus(),
		docs:     NewDocumentManager(),
		host:     &hostAdapter{host: opts.Host},
		commands: command.NewRegistry(),
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())

	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	if err := app.bus.Start(); err != nil {
		return NewOperationError("start", "event bus", err)
	}

	if err := app.registerCommands(); err != nil {
		return NewOperationError("register", "commands", err)
	}

	app.loadPlugins()

	app.engine = fold.NewEngine(app.host,
		fold.WithScanner(app.buildScanner(app.cfg)),
		fold.WithLogger(app.logger.WithComponent("engine").Zerolog()),
	)

	schedOpts := []fold.SchedulerOption{
		fold.WithDelay(app.cfg.Delay()),
		fold.WithClassUnfoldInterval(app.cfg.UnfoldClassesInterval()),
		fold.WithSchedulerLogger(app.logger.WithComponent("scheduler").Zerolog()),
	}
	if app.opts.Executor != nil {
		schedOpts = append(schedOpts, fold.WithExecutor(app.opts.Executor))
	}
	app.scheduler = fold.NewScheduler(app.engine, schedOpts...)

	app.subs = newSubscriptionManager(app)
	if err := app.subs.setup(); err != nil {
		return NewOperationError("subscribe", "event bus", err)
	}

	if err := app.scheduler.StartClassUnfold(app.ctx, app.activeDocument); err != nil {
		return NewOperationError("start", "class unfold", err)
	}

	if app.opts.WatchConfig && app.opts.Load.File != "" {
		if err := app.watchConfig(); err != nil {
			return NewOperationError("watch", app.opts.Load.File, err)
		}
	}

	app.logger.Debug("application started (delay=%s, start_match=%s, plugins=%d)",
		app.cfg.Delay(), app.cfg.StartMatch(), len(app.plugins))
	return nil
}

// buildScanner creates a scanner from cfg plus the plugin attachment rules.
func (app *Application) buildScanner(cfg *config.Config) *fold.Scanner {
	opts := cfg.ScannerOptions()
	for _, rule := range pluginlua.AttachRules(app.plugins) {
		opts = append(opts, fold.WithAttachRule(rule))
	}
	return fold.NewScanner(opts...)
}

// currentScanner returns the engine's scanner, or one built from the
// configuration while the engine does not exist yet.
func (app *Application) currentScanner() *fold.Scanner {
	if app.engine == nil {
		return fold.NewScanner(app.Config().ScannerOptions()...)
	}
	return app.engine.Scanner()
}

// loadPlugins runs the configured scripts. A broken plugin is logged and
// skipped.
func (app *Application) loadPlugins() {
	log := app.logger.WithComponent("plugin")
	for _, path := range app.cfg.Plugins.Scripts {
		p, err := pluginlua.Load(path,
			pluginlua.WithRegistry(app.commands),
			pluginlua.WithLogger(log.Zerolog()),
			pluginlua.WithScannerFunc(app.currentScanner),
		)
		if err != nil {
			log.Warn("skipping plugin: %v", err)
			continue
		}
		app.plugins = append(app.plugins, p)
		log.Info("loaded plugin %s (%d attach rules, %d commands)", p.Name(), p.RuleCount(), len(p.Commands()))
	}
}

func (app *Application) watchConfig() error {
	w, err := watcher.New(
		watcher.WithDebounce(100*time.Millisecond),
		watcher.WithErrorHandler(func(err error) {
			app.logger.WithComponent("config").Warn("watch error: %v", err)
		}),
	)
	if err != nil {
		return err
	}
	w.OnChange(func(ev watcher.Event) {
		if ev.Op == watcher.OpRemove {
			return
		}
		if err := app.ReloadConfig(app.ctx); err != nil {
			app.logger.WithComponent("config").Warn("reload failed: %v", err)
		}
	})
	if err := w.Watch(app.opts.Load.File); err != nil {
		_ = w.Close()
		return err
	}
	app.watcher = w
	return nil
}

// SetHost attaches the host that executes fold commands.
func (app *Application) SetHost(host fold.Host) {
	app.host.set(host)
}

// Open opens the file at path and focuses it.
func (app *Application) Open(ctx context.Context, path string) (*Document, error) {
	if app.shutdown.Load() {
		return nil, ErrShutdown
	}
	doc, opened, err := app.docs.Open(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	if opened {
		publish(app, ctx, events.TopicDocumentOpened, events.DocumentOpened{Document: doc, Path: doc.Path})
	}
	publish(app, ctx, events.TopicActiveEditorChanged, events.ActiveEditorChanged{Document: doc})
	return doc, nil
}

// OpenContent opens an unsaved document holding text and focuses it.
func (app *Application) OpenContent(ctx context.Context, name, text string) (*Document, error) {
	if app.shutdown.Load() {
		return nil, ErrShutdown
	}
	doc := app.docs.OpenContent(name, text)
	publish(app, ctx, events.TopicDocumentOpened, events.DocumentOpened{Document: doc})
	publish(app, ctx, events.TopicActiveEditorChanged, events.ActiveEditorChanged{Document: doc})
	return doc, nil
}

// Activate focuses the open document with key.
func (app *Application) Activate(ctx context.Context, key string) (*Document, error) {
	doc, err := app.docs.SetActive(key)
	if err != nil {
		return nil, err
	}
	publish(app, ctx, events.TopicActiveEditorChanged, events.ActiveEditorChanged{Document: doc})
	return doc, nil
}

// Next focuses the next open document.
func (app *Application) Next(ctx context.Context) *Document {
	doc := app.docs.Next()
	if doc != nil {
		publish(app, ctx, events.TopicActiveEditorChanged, events.ActiveEditorChanged{Document: doc})
	}
	return doc
}

// Blur leaves no document focused.
func (app *Application) Blur(ctx context.Context) {
	app.docs.ClearActive()
	publish(app, ctx, events.TopicActiveEditorChanged, events.ActiveEditorChanged{})
}

// Close closes the document with key. Focus moves to the most recently
// opened remaining document.
func (app *Application) Close(ctx context.Context, key string) error {
	doc, err := app.docs.Close(key)
	if err != nil {
		return err
	}
	publish(app, ctx, events.TopicDocumentClosed, events.DocumentClosed{Key: key, Path: doc.Path})

	changed := events.ActiveEditorChanged{}
	if active := app.docs.Active(); active != nil {
		changed.Document = active
	}
	publish(app, ctx, events.TopicActiveEditorChanged, changed)
	return nil
}

// UpdateVisible reports the lines currently shown for the document with key.
func (app *Application) UpdateVisible(ctx context.Context, key string, visible []fold.LineRange) error {
	doc, ok := app.docs.Get(key)
	if !ok {
		return ErrDocumentNotFound
	}
	publish(app, ctx, events.TopicVisibleRangesChanged, events.VisibleRangesChanged{Document: doc, Visible: visible})
	return nil
}

// ExecuteCommand runs the named command.
func (app *Application) ExecuteCommand(ctx context.Context, name string) error {
	err := app.commands.Execute(ctx, name)
	publish(app, ctx, events.TopicCommandExecuted, events.CommandExecuted{Name: name, Err: err})
	return err
}

// ReloadConfig reads the configuration sources again and applies them. The
// scanner and log level change immediately; the pass delay and class unfold
// interval keep their startup values. On failure the current configuration
// stays in effect.
func (app *Application) ReloadConfig(ctx context.Context) error {
	path := app.opts.Load.File

	cfg, err := config.Load(app.opts.Load)
	if err == nil && app.opts.Overrides != nil {
		app.opts.Overrides(cfg)
		err = cfg.Validate()
	}
	if err != nil {
		publish(app, ctx, events.TopicConfigReloadFailed, events.ConfigReloadFailed{Path: path, Err: err})
		return NewOperationError("reload", path, err)
	}

	app.mu.Lock()
	app.cfg = cfg
	app.mu.Unlock()

	app.engine.SetScanner(app.buildScanner(cfg))
	app.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))
	app.logger.Info("configuration reloaded from %s", path)

	publish(app, ctx, events.TopicConfigReloaded, events.ConfigReloaded{Path: path})
	return nil
}

// Shutdown stops timers, the config watcher and plugins. It is safe to call
// more than once.
func (app *Application) Shutdown() {
	if app.shutdown.Swap(true) {
		return
	}
	app.cancel()

	if app.watcher != nil {
		_ = app.watcher.Close()
	}
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.subs != nil {
		app.subs.unsubscribeAll()
	}
	for _, p := range app.plugins {
		_ = p.Close()
	}
	if app.bus.IsRunning() {
		_ = app.bus.Stop()
	}
	app.logger.Debug("application stopped")
}

// Context is cancelled by Shutdown.
func (app *Application) Context() context.Context { return app.ctx }

// Config returns the current configuration.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg
}

// Bus returns the event bus.
func (app *Application) Bus() event.Bus { return app.bus }

// Documents returns the document manager.
func (app *Application) Documents() *DocumentManager { return app.docs }

// Engine returns the fold engine.
func (app *Application) Engine() *fold.Engine { return app.engine }

// Scheduler returns the pass scheduler.
func (app *Application) Scheduler() *fold.Scheduler { return app.scheduler }

// Commands returns the command registry.
func (app *Application) Commands() *command.Registry { return app.commands }

// Plugins returns the loaded plugins.
func (app *Application) Plugins() []*pluginlua.Plugin { return app.plugins }

// Logger returns the application logger.
func (app *Application) Logger() *Logger { return app.logger }

// ActiveDocument returns the focused document, or nil.
func (app *Application) ActiveDocument() *Document { return app.docs.Active() }

// activeDocument returns the focused document as a fold.Document, keeping
// the interface nil when nothing is focused.
func (app *Application) activeDocument() fold.Document {
	if doc := app.docs.Active(); doc != nil {
		return doc
	}
	return nil
}

// publish sends a typed event so subscribers registered with
// event.Subscribe receive the concrete payload type.
func publish[T any](app *Application, ctx context.Context, t topic.Topic, payload T) {
	if err := app.bus.Publish(ctx, event.NewEvent(t, payload, "app")); err != nil && !errors.Is(err, event.ErrBusNotRunning) {
		app.logger.WithComponent("bus").Warn("publish %s: %v", t, err)
	}
}
