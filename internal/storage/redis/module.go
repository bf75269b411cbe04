package redis

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/agristar/internal/adapter/mpesa"
	"github.com/polkiloo/agristar/internal/config"
)

// Module provides the gateway token cache: Redis when configured, process
// memory otherwise.
var Module = fx.Options(
	fx.Provide(newTokenCache),
)

type cacheParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
	LC     fx.Lifecycle
}

func newTokenCache(p cacheParams) (mpesa.TokenCache, error) {
	if p.Config.RedisURL == "" {
		p.Logger.Info("redis not configured, caching gateway tokens in memory")
		return mpesa.NewMemoryTokenCache(), nil
	}
	client, err := New(p.Ctx, p.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
