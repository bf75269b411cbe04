package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/agristar/internal/adapter/mpesa"
	"github.com/polkiloo/agristar/internal/app"
	"github.com/polkiloo/agristar/internal/config"
	"github.com/polkiloo/agristar/internal/logger"
	"github.com/polkiloo/agristar/internal/metrics"
	"github.com/polkiloo/agristar/internal/pkg/auth"
	"github.com/polkiloo/agristar/internal/server/http/router"
	"github.com/polkiloo/agristar/internal/storage/postgres"
	"github.com/polkiloo/agristar/internal/storage/redis"
	"github.com/polkiloo/agristar/internal/usecase"
	"github.com/polkiloo/agristar/internal/worker"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		postgres.Module,
		redis.Module,
		mpesa.Module,
		usecase.Module,
		worker.Module,
		fx.Provide(
			func(c mpesa.Collector) usecase.PaymentCollector { return c },
			func(d mpesa.Disburser) usecase.PaymentDisburser { return d },
			func(s *postgres.Storage) app.HealthChecker { return s },
			fx.Annotate(
				func(m *metrics.Metrics) usecase.TransitionHook { return m },
				fx.ResultTags(`group:"transition_hooks"`),
			),
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
