package fold

import (
	"context"
	"slices"
	"sync"
)

// HostCall is one command received by a RecordingHost.
type HostCall struct {
	Command string
	Key     string
	Lines   []int
}

// RecordingHost is a Host that only records the commands it receives.
// It backs dry runs and tests.
type RecordingHost struct {
	mu    sync.Mutex
	calls []HostCall

	// Err, when set, is returned from every command after recording it.
	Err error
}

// Fold implements Host.
func (h *RecordingHost) Fold(_ context.Context, key string, lines []int) error {
	return h.record("fold", key, lines)
}

// Unfold implements Host.
func (h *RecordingHost) Unfold(_ context.Context, key string, lines []int) error {
	return h.record("unfold", key, lines)
}

// UnfoldAll implements Host.
func (h *RecordingHost) UnfoldAll(_ context.Context, key string) error {
	return h.record("unfoldAll", key, nil)
}

func (h *RecordingHost) record(cmd, key string, lines []int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, HostCall{Command: cmd, Key: key, Lines: slices.Clone(lines)})
	return h.Err
}

// Calls returns a copy of the recorded commands.
func (h *RecordingHost) Calls() []HostCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.calls)
}

// Reset discards recorded commands.
func (h *RecordingHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}
