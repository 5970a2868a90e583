package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hubber is the external API the session service and the HTTP upgrade
// handler depend on.
type Hubber interface {
	Broadcast(ev Eventer) bool
	Register(key string, conn Connector)
	Unregister(key string, connID uuid.UUID)
	IsWatched(key string) bool
	Shutdown()
}

// Hub keys one Cell per watched (session, variable) pair. It replaces the
// teacher's per-user sync.Map of Cells with a per-watch-key one; everything
// else about the fan-out/eviction shape carries over unchanged.
type Hub struct {
	cells sync.Map // string -> Celler

	logger *slog.Logger

	evictionInterval time.Duration
	idleTimeout      time.Duration
	mailboxSize      int
	stopCh           chan struct{}
}

// NewHub builds a Hub and starts its idle-cell janitor.
func NewHub(logger *slog.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger:           logger,
		evictionInterval: time.Minute,
		idleTimeout:      5 * time.Minute,
		mailboxSize:      64,
		stopCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	go h.runEvictor()
	return h
}

// IsWatched reports whether a cell exists for key: true from the first
// Register until the evictor reclaims the idle cell, even after every
// subscriber has detached.
func (h *Hub) IsWatched(key string) bool {
	_, ok := h.cells.Load(key)
	return ok
}

// Broadcast pushes ev to the cell for its key, if a cell exists for it
// (see IsWatched). A miss is not an error: most flag flips have no
// websocket subscriber, since the Client Protocol's poll loop works
// without one.
func (h *Hub) Broadcast(ev Eventer) bool {
	val, ok := h.cells.Load(ev.GetKey())
	if !ok {
		return false
	}
	cell, ok := val.(Celler)
	if !ok {
		return false
	}
	return cell.Push(ev)
}

// Register attaches conn to the cell for key, creating the cell on first
// subscriber.
func (h *Hub) Register(key string, conn Connector) {
	val, _ := h.cells.LoadOrStore(key, NewCell(key, h.mailboxSize))
	if cell, ok := val.(Celler); ok {
		cell.Attach(conn)
	}
}

// Unregister detaches connID from key's cell. Cell reclamation itself is
// left to the evictor so a momentary zero-subscriber gap (client
// reconnecting) doesn't tear down and rebuild the cell.
func (h *Hub) Unregister(key string, connID uuid.UUID) {
	if val, ok := h.cells.Load(key); ok {
		if cell, ok := val.(Celler); ok {
			cell.Detach(connID)
		}
	}
}

func (h *Hub) runEvictor() {
	ticker := time.NewTicker(h.evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.performEviction()
		}
	}
}

func (h *Hub) performEviction() {
	reaped := 0
	h.cells.Range(func(key, value any) bool {
		if cell, ok := value.(Celler); ok && cell.IsIdle(h.idleTimeout) {
			cell.Stop()
			h.cells.Delete(key)
			reaped++
		}
		return true
	})
	if reaped > 0 {
		h.logger.Debug("watch_cells_evicted", slog.Int("count", reaped))
	}
}

// Shutdown stops the evictor and every live cell.
func (h *Hub) Shutdown() {
	close(h.stopCh)
	h.cells.Range(func(key, value any) bool {
		if cell, ok := value.(Celler); ok {
			cell.Stop()
		}
		return true
	})
}
