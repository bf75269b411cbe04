package worker

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/agristar/internal/config"
	"github.com/polkiloo/agristar/internal/usecase"
)

type dispatcherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Hooks  []usecase.TransitionHook `group:"transition_hooks"`
}

func newHookDispatcher(p dispatcherParams) *HookDispatcher {
	return NewHookDispatcher(p.Hooks, p.Config.HookWorkers, p.Config.HookQueueSize, p.Logger)
}

// Module wires the hook dispatcher as the coordinator's event publisher.
// Its lifecycle is owned by the app module.
var Module = fx.Options(
	fx.Provide(
		newHookDispatcher,
		func(d *HookDispatcher) usecase.EventPublisher { return d },
	),
)
