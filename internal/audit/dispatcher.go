package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Dispatcher is the high-level publish contract transport/service code
// depends on, keeping callers agnostic of the underlying watermill
// publisher. Mirrors the teacher's EventDispatcher interface.
type Dispatcher interface {
	Publish(ctx context.Context, ev Eventer) error
}

type dispatcher struct {
	publisher message.Publisher
}

// NewDispatcher wraps pub as a Dispatcher.
func NewDispatcher(pub message.Publisher) Dispatcher {
	return &dispatcher{publisher: pub}
}

func (d *dispatcher) Publish(ctx context.Context, ev Eventer) error {
	if ev == nil {
		return fmt.Errorf("audit: cannot publish nil event")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("audit: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := d.publisher.Publish(ev.GetRoutingKey(), msg); err != nil {
		return fmt.Errorf("audit: failed to publish to %s: %w", ev.GetRoutingKey(), err)
	}
	return nil
}

// NoopDispatcher discards every event; it backs deployments that run
// without an AMQP broker (local dev, tests) without forcing every caller
// to nil-check a Dispatcher.
type NoopDispatcher struct{}

func (NoopDispatcher) Publish(context.Context, Eventer) error { return nil }
