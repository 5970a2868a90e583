package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// observabilityMiddleware decorates a Broker with structured logging,
// following the teacher's enricherMiddleware: wrap the interface, log the
// outcome, delegate the call, without polluting brokerService itself.
type observabilityMiddleware struct {
	next   Broker
	logger *slog.Logger
}

// NewObservabilityMiddleware wraps next with request logging. Installed via
// fx.Decorate in Module, mirroring the teacher's service.Module decoration
// of Enricher.
func NewObservabilityMiddleware(next Broker, logger *slog.Logger) Broker {
	return &observabilityMiddleware{next: next, logger: logger}
}

func (m *observabilityMiddleware) CreateSession(ctx context.Context, params session.CreateParams) (session.ID, error) {
	start := time.Now()
	id, err := m.next.CreateSession(ctx, params)
	m.log("create_session", err, start, slog.Any("session_id", id))
	return id, err
}

func (m *observabilityMiddleware) JoinSession(ctx context.Context, id session.ID, inviteeID int) error {
	start := time.Now()
	err := m.next.JoinSession(ctx, id, inviteeID)
	m.log("join_session", err, start, slog.Any("session_id", id), slog.Int("invitee_id", inviteeID))
	return err
}

func (m *observabilityMiddleware) GetSessionStatus(ctx context.Context, id session.ID) (session.Status, error) {
	status, err := m.next.GetSessionStatus(ctx, id)
	return status, err
}

func (m *observabilityMiddleware) GetVariableFlag(ctx context.Context, id session.ID, varID int) (int, error) {
	return m.next.GetVariableFlag(ctx, id, varID)
}

func (m *observabilityMiddleware) GetVariableSize(ctx context.Context, id session.ID, varID int) (int, error) {
	return m.next.GetVariableSize(ctx, id, varID)
}

func (m *observabilityMiddleware) SendData(ctx context.Context, id session.ID, varID int, value []float64) error {
	start := time.Now()
	err := m.next.SendData(ctx, id, varID, value)
	m.log("send_data", err, start, slog.Any("session_id", id), slog.Int("var_id", varID), slog.Int("n", len(value)))
	return err
}

func (m *observabilityMiddleware) ReceiveData(ctx context.Context, id session.ID, varID int) ([]float64, error) {
	start := time.Now()
	v, err := m.next.ReceiveData(ctx, id, varID)
	m.log("receive_data", err, start, slog.Any("session_id", id), slog.Int("var_id", varID))
	return v, err
}

func (m *observabilityMiddleware) EndSession(ctx context.Context, id session.ID, clientID int) (session.Status, error) {
	start := time.Now()
	status, err := m.next.EndSession(ctx, id, clientID)
	m.log("end_session", err, start, slog.Any("session_id", id), slog.Int("client_id", clientID))
	return status, err
}

func (m *observabilityMiddleware) Snapshot(ctx context.Context) []session.Snapshot {
	return m.next.Snapshot(ctx)
}

func (m *observabilityMiddleware) log(op string, err error, start time.Time, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)*2+2)
	args = append(args, slog.Duration("duration", time.Since(start)))
	for _, a := range attrs {
		args = append(args, a)
	}
	if err != nil {
		args = append(args, slog.Any("err", err))
		m.logger.Warn(op, args...)
		return
	}
	m.logger.Info(op, args...)
}
