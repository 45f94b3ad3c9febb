package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua plugin operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script or callback runs too long.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNotFunction is returned when a callback value is not a function.
	ErrNotFunction = errors.New("not a lua function")
)

// PluginError wraps a failure while loading or running a plugin.
type PluginError struct {
	// Plugin is the plugin name.
	Plugin string
	// Op is what was being done: "load", "attach_rule" or "command".
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error {
	return e.Err
}
