package ws

import (
	"context"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

// NotifyMiddleware decorates a Broker so every successful send_data and
// receive_data broadcasts the slot's new flag to any watch_variable
// subscriber, and an end_session that closes the session (END) broadcasts
// SessionEnded for each of its variables; a partial end broadcasts nothing.
// The registry itself never knows websockets exist.
type NotifyMiddleware struct {
	next service.Broker
	hub  Hubber
}

// NewNotifyMiddleware wraps next with hub notification. Installed via
// fx.Decorate alongside the service package's observability decorator.
func NewNotifyMiddleware(next service.Broker, hub Hubber) service.Broker {
	return &NotifyMiddleware{next: next, hub: hub}
}

func (m *NotifyMiddleware) CreateSession(ctx context.Context, params session.CreateParams) (session.ID, error) {
	return m.next.CreateSession(ctx, params)
}

func (m *NotifyMiddleware) JoinSession(ctx context.Context, id session.ID, inviteeID int) error {
	return m.next.JoinSession(ctx, id, inviteeID)
}

func (m *NotifyMiddleware) GetSessionStatus(ctx context.Context, id session.ID) (session.Status, error) {
	return m.next.GetSessionStatus(ctx, id)
}

func (m *NotifyMiddleware) GetVariableFlag(ctx context.Context, id session.ID, varID int) (int, error) {
	return m.next.GetVariableFlag(ctx, id, varID)
}

func (m *NotifyMiddleware) GetVariableSize(ctx context.Context, id session.ID, varID int) (int, error) {
	return m.next.GetVariableSize(ctx, id, varID)
}

func (m *NotifyMiddleware) SendData(ctx context.Context, id session.ID, varID int, value []float64) error {
	err := m.next.SendData(ctx, id, varID, value)
	if err == nil {
		m.hub.Broadcast(FlagChanged{SessionID: id, VarID: varID, Flag: session.FlagFull})
	}
	return err
}

func (m *NotifyMiddleware) ReceiveData(ctx context.Context, id session.ID, varID int) ([]float64, error) {
	v, err := m.next.ReceiveData(ctx, id, varID)
	if err == nil {
		m.hub.Broadcast(FlagChanged{SessionID: id, VarID: varID, Flag: session.FlagEmpty})
	}
	return v, err
}

func (m *NotifyMiddleware) EndSession(ctx context.Context, id session.ID, clientID int) (session.Status, error) {
	var watchedVars []int
	if status, lookupErr := m.next.GetSessionStatus(ctx, id); lookupErr == nil && status != session.StatusUnknown {
		for _, snap := range m.next.Snapshot(ctx) {
			if snap.ID == id {
				for varID := range snap.Flags {
					watchedVars = append(watchedVars, varID)
				}
			}
		}
	}

	status, err := m.next.EndSession(ctx, id, clientID)
	if err == nil && status == session.StatusEnd {
		for _, varID := range watchedVars {
			m.hub.Broadcast(SessionEnded{SessionID: id, VarID: varID})
		}
	}
	return status, err
}

func (m *NotifyMiddleware) Snapshot(ctx context.Context) []session.Snapshot {
	return m.next.Snapshot(ctx)
}
