// Package service orchestrates the Session Registry into the operations the
// RPC surface calls, following the teacher's Deliverer-interface-over-Hub
// shape (internal/service/delivery.go: a thin interface in front of the
// registry/hub, so transport handlers never touch domain/registry directly).
package service

import (
	"context"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/registry"
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// Broker is the primary interface for transport handlers (HTTP, ws watch).
type Broker interface {
	CreateSession(ctx context.Context, params session.CreateParams) (session.ID, error)
	JoinSession(ctx context.Context, id session.ID, inviteeID int) error
	GetSessionStatus(ctx context.Context, id session.ID) (session.Status, error)
	GetVariableFlag(ctx context.Context, id session.ID, varID int) (int, error)
	GetVariableSize(ctx context.Context, id session.ID, varID int) (int, error)
	SendData(ctx context.Context, id session.ID, varID int, value []float64) error
	ReceiveData(ctx context.Context, id session.ID, varID int) ([]float64, error)
	EndSession(ctx context.Context, id session.ID, clientID int) (session.Status, error)
	Snapshot(ctx context.Context) []session.Snapshot
}

// brokerService is the concrete implementation, private to force interface
// usage (matches the teacher's unexported DeliveryService pattern).
type brokerService struct {
	registry *registry.Registry
}

// NewBroker returns a production-ready Broker backed by reg.
func NewBroker(reg *registry.Registry) Broker {
	return &brokerService{registry: reg}
}

func (b *brokerService) CreateSession(_ context.Context, params session.CreateParams) (session.ID, error) {
	if err := params.Validate(); err != nil {
		return session.ID{}, err
	}
	return b.registry.Create(params), nil
}

func (b *brokerService) JoinSession(_ context.Context, id session.ID, inviteeID int) error {
	return b.registry.Join(id, inviteeID)
}

func (b *brokerService) GetSessionStatus(_ context.Context, id session.ID) (session.Status, error) {
	return b.registry.Status(id)
}

func (b *brokerService) GetVariableFlag(_ context.Context, id session.ID, varID int) (int, error) {
	return b.registry.Flag(id, varID)
}

func (b *brokerService) GetVariableSize(_ context.Context, id session.ID, varID int) (int, error) {
	return b.registry.Size(id, varID)
}

func (b *brokerService) SendData(_ context.Context, id session.ID, varID int, value []float64) error {
	return b.registry.Send(id, varID, value)
}

func (b *brokerService) ReceiveData(_ context.Context, id session.ID, varID int) ([]float64, error) {
	return b.registry.Receive(id, varID)
}

func (b *brokerService) EndSession(_ context.Context, id session.ID, clientID int) (session.Status, error) {
	return b.registry.End(id, clientID)
}

func (b *brokerService) Snapshot(_ context.Context) []session.Snapshot {
	return b.registry.Snapshot()
}
