package usecase

import (
	"context"
	"log/slog"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// TransitionHook reacts to a committed order transition. Hooks run after
// the transition is stored; their failures never roll it back.
type TransitionHook interface {
	HandleTransition(ctx context.Context, ev model.TransitionEvent) error
}

// EventPublisher hands committed transitions to the registered hooks.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.TransitionEvent)
}

// SyncPublisher runs every hook inline, in registration order.
type SyncPublisher struct {
	hooks  []TransitionHook
	logger *slog.Logger
}

func NewSyncPublisher(logger *slog.Logger, hooks ...TransitionHook) *SyncPublisher {
	return &SyncPublisher{hooks: hooks, logger: logger}
}

func (p *SyncPublisher) Publish(ctx context.Context, ev model.TransitionEvent) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range p.hooks {
		if err := h.HandleTransition(ctx, ev); err != nil && p.logger != nil {
			p.logger.Warn("transition hook failed",
				slog.Int64("order_id", ev.Order.ID),
				slog.String("event", string(ev.Event)),
				slog.Any("error", err),
			)
		}
	}
}
