package ws

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
	"github.com/dantte-lp/dataexchange-broker/internal/service"
)

// Handler upgrades /watch_variable connections and subscribes them to a
// (session, variable) watch key.
type Handler struct {
	broker   service.Broker
	hub      Hubber
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New builds a Handler. Origin checking is left permissive (matching the
// Client Protocol's lack of any origin/CORS concept elsewhere); deployments
// that need it front the broker with a reverse proxy.
func New(broker service.Broker, hub Hubber, logger *slog.Logger) *Handler {
	return &Handler{
		broker: broker,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// ServeHTTP implements the watch_variable endpoint: GET
// /watch_variable?session_id=...&var_id=... upgrades to a websocket that
// receives a JSON FlagChanged/SessionEnded frame every time the slot's
// flag flips, until the client disconnects or the session ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := session.ParseID(r.URL.Query().Get("session_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	varID, err := strconv.Atoi(r.URL.Query().Get("var_id"))
	if err != nil {
		http.Error(w, "invalid var_id", http.StatusBadRequest)
		return
	}

	if _, err := h.broker.GetVariableFlag(r.Context(), id, varID); err != nil {
		http.Error(w, "unknown session or variable", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("watch_variable_upgrade_failed", slog.Any("err", err))
		return
	}

	key := watchKey(id, varID)
	subscriber := NewConnector(r.Context(), key, conn, 16)
	h.hub.Register(key, subscriber)
	defer func() {
		h.hub.Unregister(key, subscriber.GetID())
		subscriber.Close()
	}()

	// Drain and discard inbound frames: this socket is notification-only,
	// but reading is still required to observe the client's close frame
	// and keep gorilla's ping/pong housekeeping alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
