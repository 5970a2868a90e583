package ws

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/dantte-lp/dataexchange-broker/config"
)

func provideHub(logger *slog.Logger, cfg *config.Config) *Hub {
	return NewHub(logger,
		WithEvictionInterval(cfg.Watch.EvictionInterval),
		WithIdleTimeout(cfg.Watch.IdleTimeout),
		WithMailboxSize(cfg.Watch.MailboxSize),
	)
}

// Module wires the watch_variable hub into the fx graph, exposing it both
// as a concrete *Hub and as the narrower Hubber that the notify decorator
// and the HTTP upgrade handler depend on.
var Module = fx.Module("ws",
	fx.Provide(
		provideHub,
		New,
		fx.Annotate(
			func(h *Hub) Hubber { return h },
			fx.As(new(Hubber)),
		),
	),
)
