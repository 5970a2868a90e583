// Package audit publishes session lifecycle events (created, joined,
// partial-end, end) onto AMQP fanout exchanges, one per event kind, for
// external observers —
// billing, coupling dashboards, compliance retention — none of which the
// broker itself needs to read back. Grounded on the teacher's
// internal/adapter/pubsub/event_dispatcher.go (EventDispatcher) and
// internal/handler/amqp/module.go's watermill-amqp wiring, repurposed from
// bidirectional per-user delivery to one-way lifecycle fan-out.
package audit

import (
	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// Eventer is the minimal contract a lifecycle event must satisfy to be
// published: a stable routing key for the exchange's topic binding.
type Eventer interface {
	GetRoutingKey() string
}

// LifecycleEvent carries the session id, the new status, and the client
// that triggered the transition, serialized as the event body.
type LifecycleEvent struct {
	Kind      string         `json:"kind"`
	SessionID session.ID     `json:"session_id"`
	Status    session.Status `json:"status"`
	ClientID  int            `json:"client_id,omitempty"`
}

const (
	KindCreated    = "session.created"
	KindJoined     = "session.joined"
	KindPartialEnd = "session.partial_end"
	KindEnded      = "session.ended"
)

// GetRoutingKey returns the event kind ("session.<stage>"), which the
// dispatcher uses as the watermill topic; with the audit module's AMQP
// config that topic names the fanout exchange the event is published to.
func (e LifecycleEvent) GetRoutingKey() string {
	return e.Kind
}

// NewCreated builds the event published right after create_session mints id.
func NewCreated(id session.ID) LifecycleEvent {
	return LifecycleEvent{Kind: KindCreated, SessionID: id, Status: session.StatusCreated}
}

// NewJoined builds the event published right after join_session succeeds.
func NewJoined(id session.ID, inviteeID int) LifecycleEvent {
	return LifecycleEvent{Kind: KindJoined, SessionID: id, Status: session.StatusActive, ClientID: inviteeID}
}

// NewEnded builds the event published after end_session, tagged with
// whichever of PARTIAL_END/END the transition actually produced.
func NewEnded(id session.ID, clientID int, status session.Status) LifecycleEvent {
	kind := KindPartialEnd
	if status == session.StatusEnd {
		kind = KindEnded
	}
	return LifecycleEvent{Kind: kind, SessionID: id, Status: status, ClientID: clientID}
}
