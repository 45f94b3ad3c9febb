package fold

import "errors"

// Sentinel errors for the fold package.
var (
	// ErrNoHost is returned when a pass needs host commands but none is set.
	ErrNoHost = errors.New("no fold host")

	// ErrUnknownStartMatch is returned for an unrecognised start rule name.
	ErrUnknownStartMatch = errors.New("unknown start match")

	// ErrSchedulerStopped is returned when work is scheduled after Stop.
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// HostError wraps a failed host command.
type HostError struct {
	// Command is the host command name ("fold", "unfold", "unfoldAll").
	Command string

	// Key identifies the document.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HostError) Error() string {
	return "host " + e.Command + " " + e.Key + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HostError) Unwrap() error {
	return e.Err
}
