package app

import (
	"context"
	"sync"

	"github.com/dshills/docfold/internal/fold"
)

// hostAdapter forwards fold commands to a host that can be attached after
// the application is built. The viewer attaches itself once its screen is up.
type hostAdapter struct {
	mu   sync.RWMutex
	host fold.Host
}

func (h *hostAdapter) set(host fold.Host) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.host = host
}

func (h *hostAdapter) get() fold.Host {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.host
}

func (h *hostAdapter) Fold(ctx context.Context, key string, lines []int) error {
	host := h.get()
	if host == nil {
		return fold.ErrNoHost
	}
	return host.Fold(ctx, key, lines)
}

func (h *hostAdapter) Unfold(ctx context.Context, key string, lines []int) error {
	host := h.get()
	if host == nil {
		return fold.ErrNoHost
	}
	return host.Unfold(ctx, key, lines)
}

func (h *hostAdapter) UnfoldAll(ctx context.Context, key string) error {
	host := h.get()
	if host == nil {
		return fold.ErrNoHost
	}
	return host.UnfoldAll(ctx, key)
}
