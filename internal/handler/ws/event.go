// Package ws implements the watch_variable ambient feature: a websocket
// endpoint that pushes flag-flip notifications for a (session, variable)
// pair, sparing a subscriber the get_variable_flag poll loop the Client
// Protocol otherwise requires. Grounded on the teacher's Actor-model
// registry (internal/domain/registry/{cell,connect,hub}.go in the
// original), repurposed from per-user presence fan-out to per-(session,
// var) flag-change fan-out.
package ws

import (
	"strconv"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

// Priority levels carried by watch events: FlagChanged reports
// PriorityNormal and SessionEnded reports PriorityHigh. A cell's mailbox is
// a plain FIFO channel and does not reorder events by priority.
const (
	PriorityLow = iota
	PriorityNormal
	PriorityHigh
)

// Eventer is the payload pushed through a cell's mailbox.
type Eventer interface {
	GetKey() string
	GetPriority() int
}

// FlagChanged is emitted after a successful send_data (flag 1) or
// receive_data (flag 0). Slots cleared by a partial end emit no event.
type FlagChanged struct {
	SessionID session.ID
	VarID     int
	Flag      int
}

func (e FlagChanged) GetKey() string   { return watchKey(e.SessionID, e.VarID) }
func (e FlagChanged) GetPriority() int { return PriorityNormal }

// SessionEnded is emitted when a session transitions to END, so a watcher
// blocked waiting on a flag flip can stop waiting instead of hanging
// forever on a session that will never fill again.
type SessionEnded struct {
	SessionID session.ID
	VarID     int
}

func (e SessionEnded) GetKey() string   { return watchKey(e.SessionID, e.VarID) }
func (e SessionEnded) GetPriority() int { return PriorityHigh }

func watchKey(id session.ID, varID int) string {
	return id.String() + ":" + strconv.Itoa(varID)
}
