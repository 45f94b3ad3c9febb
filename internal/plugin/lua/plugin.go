package lua

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/docfold/internal/command"
	"github.com/dshills/docfold/internal/fold"
)

// ModuleName is the global table exposed to scripts.
const ModuleName = "docfold"

// Plugin is a loaded Lua script together with the attachment rules and
// commands it registered.
type Plugin struct {
	name     string
	state    *State
	logger   zerolog.Logger
	registry *command.Registry
	scanner  func() *fold.Scanner

	mu       sync.Mutex
	rules    []lua.LValue
	commands []string
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithRegistry lets the script register commands.
func WithRegistry(r *command.Registry) Option {
	return func(p *Plugin) {
		p.registry = r
	}
}

// WithLogger sets the logger behind docfold.log.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Plugin) {
		p.logger = l
	}
}

// WithScannerFunc sets the scanner used by docfold.scan and docfold.classes.
func WithScannerFunc(fn func() *fold.Scanner) Option {
	return func(p *Plugin) {
		if fn != nil {
			p.scanner = fn
		}
	}
}

// WithStateOptions configures the underlying Lua state.
func WithStateOptions(opts ...StateOption) Option {
	return func(p *Plugin) {
		p.state = NewState(opts...)
	}
}

// New creates a plugin with an empty state and the docfold module installed.
func New(name string, opts ...Option) *Plugin {
	p := &Plugin{
		name:    name,
		logger:  zerolog.Nop(),
		scanner: func() *fold.Scanner { return fold.NewScanner() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.state == nil {
		p.state = NewState()
	}
	p.logger = p.logger.With().Str("plugin", name).Logger()

	_ = p.state.WithState(p.install)
	return p
}

// Load runs the script at path as a new plugin named after the file.
func Load(path string, opts ...Option) (*Plugin, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p := New(name, opts...)
	if err := p.state.DoFile(path); err != nil {
		p.Close()
		return nil, &PluginError{Plugin: name, Op: "load", Err: err}
	}
	p.logger.Debug().
		Str("path", path).
		Int("rules", p.RuleCount()).
		Strs("commands", p.Commands()).
		Msg("plugin loaded")
	return p, nil
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return p.name }

// State returns the plugin's Lua state.
func (p *Plugin) State() *State { return p.state }

// DoString runs code in the plugin state.
func (p *Plugin) DoString(code string) error {
	if err := p.state.DoString(code); err != nil {
		return &PluginError{Plugin: p.name, Op: "load", Err: err}
	}
	return nil
}

// Attached reports whether any registered rule accepts next, the line after
// a JSDoc block. A failing rule counts as false and is logged.
func (p *Plugin) Attached(next string) bool {
	p.mu.Lock()
	rules := append([]lua.LValue(nil), p.rules...)
	p.mu.Unlock()

	for _, rule := range rules {
		ret, err := p.state.CallValue(rule, lua.LString(next))
		if err != nil {
			p.logger.Warn().Err(&PluginError{Plugin: p.name, Op: "attach_rule", Err: err}).Msg("attach rule failed")
			continue
		}
		if lua.LVAsBool(ret) {
			return true
		}
	}
	return false
}

// RuleCount returns the number of registered attachment rules.
func (p *Plugin) RuleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rules)
}

// Commands returns the names of commands the plugin registered.
func (p *Plugin) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

// Close unregisters the plugin's commands and closes its state.
func (p *Plugin) Close() error {
	if p.registry != nil {
		p.registry.UnregisterBySource(p.name)
	}
	return p.state.Close()
}

// install registers the docfold module. Called with the state locked.
func (p *Plugin) install(L *lua.LState) {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"attach_rule": p.luaAttachRule,
		"command":     p.luaCommand,
		"scan":        p.luaScan,
		"classes":     p.luaClasses,
		"log":         p.luaLog,
	})
	L.SetField(mod, "plugin", lua.LString(p.name))
	L.SetGlobal(ModuleName, mod)
}

// docfold.attach_rule(fn)
func (p *Plugin) luaAttachRule(L *lua.LState) int {
	fn := L.CheckFunction(1)

	p.mu.Lock()
	p.rules = append(p.rules, fn)
	p.mu.Unlock()
	return 0
}

// docfold.command(name, title, fn) -> ok, err
func (p *Plugin) luaCommand(L *lua.LState) int {
	name := L.CheckString(1)
	title := L.OptString(2, name)
	fn := L.CheckFunction(3)

	if p.registry == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("commands are not available"))
		return 2
	}

	err := p.registry.Register(command.Command{
		Name:   name,
		Title:  title,
		Source: p.name,
		Run: func(context.Context) error {
			if _, err := p.state.CallValue(fn); err != nil {
				return &PluginError{Plugin: p.name, Op: "command", Err: err}
			}
			return nil
		},
	})
	if err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}

	p.mu.Lock()
	p.commands = append(p.commands, name)
	p.mu.Unlock()

	L.Push(lua.LTrue)
	return 1
}

// docfold.scan(lines) -> {{first=, last=}, ...}
func (p *Plugin) luaScan(L *lua.LState) int {
	doc := snapshotArg(L, 1)
	L.Push(rangesTable(L, p.scanner().JSDoc(doc)))
	return 1
}

// docfold.classes(lines) -> {{first=, last=}, ...}
func (p *Plugin) luaClasses(L *lua.LState) int {
	doc := snapshotArg(L, 1)
	L.Push(rangesTable(L, p.scanner().Classes(doc)))
	return 1
}

// docfold.log(level, msg)
func (p *Plugin) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	p.logger.WithLevel(lvl).Msg(msg)
	return 0
}

// snapshotArg reads a Lua array of strings into a document.
func snapshotArg(L *lua.LState, n int) fold.Document {
	tbl := L.CheckTable(n)
	lines := make([]string, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		lines = append(lines, lua.LVAsString(tbl.RawGetInt(i)))
	}
	return fold.NewSnapshotLines(fmt.Sprintf("lua:%p", tbl), fold.LanguageJavaScript, lines)
}

// rangesTable converts ranges into an array of {first, last} tables holding
// zero-based line numbers.
func rangesTable(L *lua.LState, ranges []fold.LineRange) *lua.LTable {
	out := L.CreateTable(len(ranges), 0)
	for _, r := range ranges {
		t := L.CreateTable(0, 2)
		t.RawSetString("first", lua.LNumber(r.Start))
		t.RawSetString("last", lua.LNumber(r.End))
		out.Append(t)
	}
	return out
}

// AttachRules adapts plugins to scanner attachment rules.
func AttachRules(plugins []*Plugin) []fold.AttachRule {
	rules := make([]fold.AttachRule, 0, len(plugins))
	for _, p := range plugins {
		if p.RuleCount() > 0 {
			rules = append(rules, p)
		}
	}
	return rules
}
