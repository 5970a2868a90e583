package housekeeper

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/dantte-lp/dataexchange-broker/config"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

func provide(broker service.Broker, logger *slog.Logger, cfg *config.Config) *Housekeeper {
	return New(broker, logger, cfg.Housekeeper.Interval)
}

// Module wires the housekeeper into the fx graph and ties its Start/Stop to
// the application lifecycle.
var Module = fx.Module("housekeeper",
	fx.Provide(provide),
	fx.Invoke(func(lc fx.Lifecycle, hk *Housekeeper) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				hk.Start()
				return nil
			},
			OnStop: func(context.Context) error {
				hk.Stop()
				return nil
			},
		})
	}),
)
