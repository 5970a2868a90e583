package audit

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	amqp "github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"

	"github.com/dantte-lp/dataexchange-broker/config"
)

func provideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

// ExchangeName is the suffix of the durable queue names generated by the
// AMQP config below. Events are not published to an exchange of this name:
// the durable pub/sub config publishes each event kind to its own fanout
// exchange named after the kind (e.g. "session.ended"), so a consumer
// follows one lifecycle stage per exchange.
const ExchangeName = "dataexchange_broker.session_lifecycle"

func providePublisher(cfg *config.Config, wmLogger watermill.LoggerAdapter) (message.Publisher, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	amqpConfig := amqp.NewDurablePubSubConfig(cfg.AMQPURL, amqp.GenerateQueueNameTopicNameWithSuffix(ExchangeName))
	return amqp.NewPublisher(amqpConfig, wmLogger)
}

func provideDispatcher(pub message.Publisher) Dispatcher {
	if pub == nil {
		return NoopDispatcher{}
	}
	return NewDispatcher(pub)
}

// Module wires the audit publisher into the fx graph, following the
// teacher's amqp-handler Module shape minus the consumer-side Router: this
// side only ever publishes. With no AMQP URL configured it falls back to
// NoopDispatcher, so local/dev runs never need a broker.
var Module = fx.Module("audit",
	fx.Provide(
		provideWatermillLogger,
		providePublisher,
		provideDispatcher,
	),
	fx.Invoke(func(lc fx.Lifecycle, pub message.Publisher) {
		if pub == nil {
			return
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return pub.Close()
			},
		})
	}),
)
