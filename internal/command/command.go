// Package command provides the named command surface: commands users run
// from key bindings, the CLI or plugins, such as "Fold JSDoc Comments".
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Built-in command names.
const (
	FoldJSDoc     = "docfold.foldJSDoc"
	UnfoldAll     = "docfold.unfoldAll"
	UnfoldClasses = "docfold.unfoldClasses"
)

// Sentinel errors for the registry.
var (
	// ErrUnknownCommand is returned when executing an unregistered command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")

	// ErrInvalidCommand is returned for a command without a name or function.
	ErrInvalidCommand = errors.New("invalid command")
)

// Func runs a command.
type Func func(ctx context.Context) error

// Command is a named, user-invocable action.
type Command struct {
	// Name is the unique identifier, e.g. "docfold.foldJSDoc".
	Name string

	// Title is the human readable label, e.g. "Fold JSDoc Comments".
	Title string

	// Source is who registered the command: "builtin" or a plugin name.
	Source string

	// Run executes the command.
	Run Func
}

// Registry holds registered commands by name.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command.
func (r *Registry) Register(cmd Command) error {
	if cmd.Name == "" || cmd.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Name)
	}
	if cmd.Title == "" {
		cmd.Title = cmd.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Unregister removes a command. It reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.commands[name]
	delete(r.commands, name)
	return ok
}

// UnregisterBySource removes all commands registered by source and returns
// how many were removed.
func (r *Registry) UnregisterBySource(source string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for name, cmd := range r.commands {
		if cmd.Source == source {
			delete(r.commands, name)
			n++
		}
	}
	return n
}

// Get returns the command registered under name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	return cmd, ok
}

// Execute runs the named command. The registry lock is not held while the
// command runs, so commands may execute other commands.
func (r *Registry) Execute(ctx context.Context, name string) error {
	cmd, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if err := cmd.Run(ctx); err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}
	return nil
}

// All returns every command sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// FindByTitle returns the command with the given title.
func (r *Registry) FindByTitle(title string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cmd := range r.commands {
		if cmd.Title == title {
			return cmd, true
		}
	}
	return Command{}, false
}
