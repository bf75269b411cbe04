package usecase

import "go.uber.org/fx"

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		NewAuthUseCase,
		NewOrderUseCase,
		NewRiderUseCase,
		NewCatalogUseCase,
		NewNotificationUseCase,
		fx.Annotate(NewNotificationHook, fx.As(new(TransitionHook)), fx.ResultTags(`group:"transition_hooks"`)),
	),
)
