package audit

import (
	"context"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

// Middleware decorates a Broker so every lifecycle transition also
// publishes a LifecycleEvent via dispatcher, independent of the HTTP
// response path — publish failures are ignored and never surfaced to the
// RPC client, since an audit-trail outage must not block the coupling
// itself.
type Middleware struct {
	next       service.Broker
	dispatcher Dispatcher
}

// NewMiddleware wraps next with lifecycle-event publishing.
func NewMiddleware(next service.Broker, dispatcher Dispatcher) service.Broker {
	return &Middleware{next: next, dispatcher: dispatcher}
}

func (m *Middleware) CreateSession(ctx context.Context, params session.CreateParams) (session.ID, error) {
	id, err := m.next.CreateSession(ctx, params)
	if err == nil {
		_ = m.dispatcher.Publish(ctx, NewCreated(id))
	}
	return id, err
}

func (m *Middleware) JoinSession(ctx context.Context, id session.ID, inviteeID int) error {
	err := m.next.JoinSession(ctx, id, inviteeID)
	if err == nil {
		_ = m.dispatcher.Publish(ctx, NewJoined(id, inviteeID))
	}
	return err
}

func (m *Middleware) GetSessionStatus(ctx context.Context, id session.ID) (session.Status, error) {
	return m.next.GetSessionStatus(ctx, id)
}

func (m *Middleware) GetVariableFlag(ctx context.Context, id session.ID, varID int) (int, error) {
	return m.next.GetVariableFlag(ctx, id, varID)
}

func (m *Middleware) GetVariableSize(ctx context.Context, id session.ID, varID int) (int, error) {
	return m.next.GetVariableSize(ctx, id, varID)
}

func (m *Middleware) SendData(ctx context.Context, id session.ID, varID int, value []float64) error {
	return m.next.SendData(ctx, id, varID, value)
}

func (m *Middleware) ReceiveData(ctx context.Context, id session.ID, varID int) ([]float64, error) {
	return m.next.ReceiveData(ctx, id, varID)
}

func (m *Middleware) EndSession(ctx context.Context, id session.ID, clientID int) (session.Status, error) {
	status, err := m.next.EndSession(ctx, id, clientID)
	if err == nil {
		_ = m.dispatcher.Publish(ctx, NewEnded(id, clientID, status))
	}
	return status, err
}

func (m *Middleware) Snapshot(ctx context.Context) []session.Snapshot {
	return m.next.Snapshot(ctx)
}
