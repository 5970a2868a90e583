// Package housekeeper implements the background snapshot logger (§4.6): a
// scoped goroutine, owned by the service, cancelled and joined at shutdown.
// Grounded on the teacher's registry.Hub.runEvictor/Shutdown ticker-loop
// shape (internal/domain/registry/hub.go), repurposed from idle-cell
// eviction to read-only snapshot logging, since this spec's housekeeper
// must never mutate state.
package housekeeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dantte-lp/dataexchange-broker/internal/domain/session"
)

var tracer = otel.Tracer("dataexchange-broker/housekeeper")

// Snapshotter is the read-only surface the housekeeper polls. service.Broker
// satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) []session.Snapshot
}

// historySize bounds the number of past ticks kept in memory for the debug
// endpoint; an unbounded history would grow forever in a long-running
// broker.
const historySize = 64

// Housekeeper periodically snapshots the registry and logs it (§4.6). It
// keeps a bounded ring of recent snapshots (via an LRU cache keyed by tick
// sequence number) so an operator-facing debug endpoint or the `monitor`
// CLI can inspect recent history without re-touching the registry.
type Housekeeper struct {
	snapshotter Snapshotter
	logger      *slog.Logger
	interval    time.Duration

	mu      sync.Mutex
	history *lru.Cache[int64, []session.Snapshot]
	tick    int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a Housekeeper that will snapshot snapshotter every
// interval once started. interval must be in the 1-10s range per §4.6;
// callers outside that range are clamped to it.
func New(snapshotter Snapshotter, logger *slog.Logger, interval time.Duration) *Housekeeper {
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 10*time.Second {
		interval = 10 * time.Second
	}

	cache, _ := lru.New[int64, []session.Snapshot](historySize)

	return &Housekeeper{
		snapshotter: snapshotter,
		logger:      logger,
		interval:    interval,
		history:     cache,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop to cancel it cooperatively.
func (h *Housekeeper) Start() {
	go h.loop()
}

func (h *Housekeeper) loop() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.snapshotOnce()
		}
	}
}

func (h *Housekeeper) snapshotOnce() {
	ctx, span := tracer.Start(context.Background(), "housekeeper.tick")
	defer span.End()

	snaps := h.snapshotter.Snapshot(ctx)

	h.mu.Lock()
	tick := h.tick
	h.tick++
	h.history.Add(tick, snaps)
	h.mu.Unlock()

	span.SetAttributes(attribute.Int("housekeeper.session_count", len(snaps)))

	attrs := make([]any, 0, len(snaps))
	for _, s := range snaps {
		attrs = append(attrs, slog.Any(s.ID.String(), s.Flags))
	}
	h.logger.Debug("session_table_snapshot", attrs...)
}

// Recent returns the last n recorded snapshots (most recent last), for the
// monitor CLI / debug endpoint.
func (h *Housekeeper) Recent(n int) [][]session.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := h.history.Keys()
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}

	out := make([][]session.Snapshot, 0, len(keys))
	for _, k := range keys {
		if v, ok := h.history.Peek(k); ok {
			out = append(out, v)
		}
	}
	return out
}

// Stop cancels the loop and blocks until it has exited, so shutdown never
// returns with the goroutine still running (§4.6).
func (h *Housekeeper) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.doneCh
}
