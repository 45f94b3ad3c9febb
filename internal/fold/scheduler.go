package fold

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultDelay gives the host time to finish its own rendering before a
// triggered pass runs.
const DefaultDelay = 100 * time.Millisecond

// Executor runs fn on the goroutine that owns the host. The default runs
// fn directly on the timer goroutine.
type Executor func(fn func())

// Scheduler runs engine passes after a short delay and, optionally, unfolds
// class bodies on a fixed interval.
//
// Scheduled passes are never coalesced: every ScheduleFunc call produces its
// own pass. Passes are idempotent so redundant ones are harmless.
type Scheduler struct {
	engine   *Engine
	delay    time.Duration
	interval time.Duration
	exec     Executor
	onError  func(error)
	logger   zerolog.Logger

	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	seq     uint64
	stopped bool
	tickers []chan struct{}
	wg      sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithDelay sets the delay between a trigger and its pass. Zero or less
// runs passes immediately.
func WithDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithClassUnfoldInterval enables the periodic class unfold pass.
func WithClassUnfoldInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// WithExecutor sets how scheduled work reaches the host goroutine.
func WithExecutor(exec Executor) SchedulerOption {
	return func(s *Scheduler) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithErrorHandler receives errors from the periodic class unfold pass.
func WithErrorHandler(fn func(error)) SchedulerOption {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(l zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a scheduler for engine.
func NewScheduler(engine *Engine, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine: engine,
		delay:  DefaultDelay,
		exec:   func(fn func()) { fn() },
		logger: zerolog.Nop(),
		timers: make(map[uint64]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the configured pass delay.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// ScheduleFunc queues fn, usually a fold pass, to run after the delay. fn
// should resolve the document it works on when it runs.
func (s *Scheduler) ScheduleFunc(fn func()) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSchedulerStopped
	}
	if s.delay <= 0 {
		s.mu.Unlock()
		s.exec(fn)
		return nil
	}
	defer s.mu.Unlock()

	s.seq++
	id := s.seq
	s.timers[id] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		stopped := s.stopped
		s.mu.Unlock()

		if live && !stopped {
			s.exec(fn)
		}
	})
	return nil
}

// StartClassUnfold starts the periodic class unfold pass over the document
// returned by active. It does nothing when no interval is configured.
func (s *Scheduler) StartClassUnfold(ctx context.Context, active func() Document) error {
	if s.interval <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSchedulerStopped
	}
	done := make(chan struct{})
	s.tickers = append(s.tickers, done)
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				s.exec(func() {
					doc := active()
					if doc == nil || !IsSupported(doc.LanguageID()) {
						return
					}
					if _, err := s.engine.UnfoldClasses(ctx, doc); err != nil {
						s.report(err)
					}
				})
			}
		}
	}()

	s.logger.Debug().Dur("interval", s.interval).Msg("fold: periodic class unfold started")
	return nil
}

// Pending returns the number of passes waiting on their delay.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels pending passes and the periodic pass. It is safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	for _, done := range s.tickers {
		close(done)
	}
	s.tickers = nil
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) report(err error) {
	s.logger.Warn().Err(err).Msg("fold: scheduled pass failed")
	if s.onError != nil {
		s.onError(err)
	}
}
