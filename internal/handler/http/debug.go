package http

import (
	"net/http"
	"strconv"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/housekeeper"
)

// DebugHandler exposes the housekeeper's recent snapshot history over HTTP,
// so the monitor CLI (or any operator tooling) can poll it without sharing
// a process with the broker.
type DebugHandler struct {
	hk *housekeeper.Housekeeper
}

// NewDebugHandler builds a DebugHandler bound to hk.
func NewDebugHandler(hk *housekeeper.Housekeeper) *DebugHandler {
	return &DebugHandler{hk: hk}
}

// Routes mounts GET /debug/snapshots?n=20.
func (d *DebugHandler) Routes(r interface {
	Get(pattern string, h http.HandlerFunc)
}) {
	r.Get("/debug/snapshots", d.Snapshots)
}

func (d *DebugHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	n := 20
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	recent := d.hk.Recent(n)
	writeJSON(w, http.StatusOK, toDebugSnapshots(recent))
}

// debugTick is one housekeeper tick's worth of session snapshots, JSON
// friendly (session.ID's map key type doesn't serialize directly).
type debugTick struct {
	Sessions []debugSession `json:"sessions"`
}

type debugSession struct {
	SessionID string         `json:"session_id"`
	Status    session.Status `json:"status"`
	Flags     map[int]int    `json:"flags"`
}

func toDebugSnapshots(ticks [][]session.Snapshot) []debugTick {
	out := make([]debugTick, 0, len(ticks))
	for _, tick := range ticks {
		dt := debugTick{Sessions: make([]debugSession, 0, len(tick))}
		for _, s := range tick {
			dt.Sessions = append(dt.Sessions, debugSession{
				SessionID: s.ID.String(),
				Status:    s.Status,
				Flags:     s.Flags,
			})
		}
		out = append(out, dt)
	}
	return out
}
