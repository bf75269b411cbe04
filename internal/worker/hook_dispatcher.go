package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/usecase"
)

const defaultHookTimeout = 10 * time.Second

// HookDispatcher runs post-transition hooks on a fixed pool of workers
// behind a bounded queue. Publish never blocks the caller: when the queue
// is full the event is dropped and logged.
type HookDispatcher struct {
	hooks   []usecase.TransitionHook
	workers int
	timeout time.Duration
	logger  *slog.Logger

	jobs    chan model.TransitionEvent
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewHookDispatcher constructs the dispatcher. Non-positive sizes fall back to one.
func NewHookDispatcher(hooks []usecase.TransitionHook, workers, queueSize int, logger *slog.Logger) *HookDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HookDispatcher{
		hooks:   hooks,
		workers: workers,
		timeout: defaultHookTimeout,
		logger:  logger,
		jobs:    make(chan model.TransitionEvent, queueSize),
	}
}

// Start launches the workers.
func (d *HookDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	runCtx := context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}
}

// Stop closes the queue and waits until the queued events are handled.
func (d *HookDispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

// Publish enqueues ev for the hooks.
func (d *HookDispatcher) Publish(_ context.Context, ev model.TransitionEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("hook dispatcher stopped, transition event dropped", eventAttrs(ev)...)
		return
	}

	select {
	case d.jobs <- ev:
	default:
		d.logger.Warn("hook queue full, transition event dropped", eventAttrs(ev)...)
	}
}

func (d *HookDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for ev := range d.jobs {
		d.handle(ctx, ev)
	}
}

func (d *HookDispatcher) handle(ctx context.Context, ev model.TransitionEvent) {
	for _, h := range d.hooks {
		hookCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := h.HandleTransition(hookCtx, ev)
		cancel()
		if err != nil {
			d.logger.Warn("transition hook failed", append(eventAttrs(ev), slog.String("error", err.Error()))...)
		}
	}
}

func eventAttrs(ev model.TransitionEvent) []any {
	return []any{
		slog.Int64("order_id", ev.Order.ID),
		slog.String("event", string(ev.Event)),
		slog.String("status", string(ev.Order.Status)),
	}
}
