package ws

import "time"

// Option configures a Hub at construction time.
type Option func(*Hub)

// WithEvictionInterval sets how often the idle-cell janitor runs.
func WithEvictionInterval(d time.Duration) Option {
	return func(h *Hub) { h.evictionInterval = d }
}

// WithIdleTimeout sets how long a subscriber-less cell survives before
// reclamation.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

// WithMailboxSize sets each cell's mailbox buffer capacity.
func WithMailboxSize(size int) Option {
	return func(h *Hub) { h.mailboxSize = size }
}
