package mpesa

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/agristar/internal/config"
)

// Module wires the gateway client as collector and disburser.
var Module = fx.Options(
	fx.Provide(newClient),
	fx.Provide(
		func(c *Client) Collector { return c },
		newDisburser,
	),
)

type clientParams struct {
	fx.In

	Config   *config.Config
	Cache    TokenCache
	Observer Observer `optional:"true"`
	Logger   *slog.Logger
}

func newClient(p clientParams) (*Client, error) {
	return NewClient(Config{
		BaseURL:            p.Config.MpesaBaseURL,
		ConsumerKey:        p.Config.MpesaConsumerKey,
		ConsumerSecret:     p.Config.MpesaConsumerSecret,
		ShortCode:          p.Config.MpesaShortCode,
		PassKey:            p.Config.MpesaPassKey,
		B2CShortCode:       p.Config.MpesaB2CShortCode,
		InitiatorName:      p.Config.MpesaInitiatorName,
		SecurityCredential: p.Config.MpesaSecurityCredential,
		CallbackBaseURL:    p.Config.MpesaCallbackBaseURL,
		Timeout:            p.Config.MpesaTimeout,
	}, p.Cache, p.Observer, p.Logger)
}

func newDisburser(cfg *config.Config, client *Client, logger *slog.Logger) Disburser {
	if cfg.DisbursementMode == config.DisbursementStub {
		return NewStubDisburser(logger)
	}
	return client
}
