package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Celler is the internal API for a single watch key's delivery unit: one
// cell per (session, variable) pair that currently has subscribers.
type Celler interface {
	Push(ev Eventer) bool
	Attach(conn Connector)
	Detach(connID uuid.UUID) bool
	IsIdle(timeout time.Duration) bool
	Stop()
}

// Cell fans a watch key's events out to every subscriber currently
// attached to it. One mailbox decouples the Hub's Broadcast caller (the
// notify middleware, after the registry call has returned) from however
// many sockets are currently watching.
type Cell struct {
	key string

	mailbox chan Eventer

	mu           sync.RWMutex
	subscribers  map[uuid.UUID]Connector

	doneCh chan struct{}

	lastActivityUnix int64
}

func NewCell(key string, bufferSize int) *Cell {
	c := &Cell{
		key:              key,
		mailbox:          make(chan Eventer, bufferSize),
		subscribers:      make(map[uuid.UUID]Connector),
		doneCh:           make(chan struct{}),
		lastActivityUnix: time.Now().Unix(),
	}
	go c.loop()
	return c
}

func (c *Cell) touch() {
	atomic.StoreInt64(&c.lastActivityUnix, time.Now().Unix())
}

// IsIdle reports whether the cell has no subscribers and has been
// untouched past timeout, making it eligible for reclamation once a
// variable's flag stops changing (e.g. the session ended).
func (c *Cell) IsIdle(timeout time.Duration) bool {
	c.mu.RLock()
	hasSubscribers := len(c.subscribers) > 0
	c.mu.RUnlock()

	if hasSubscribers {
		return false
	}
	lastActivity := time.Unix(atomic.LoadInt64(&c.lastActivityUnix), 0)
	return time.Since(lastActivity) > timeout
}

func (c *Cell) Push(ev Eventer) bool {
	c.touch()
	select {
	case c.mailbox <- ev:
		return true
	default:
		return false
	}
}

func (c *Cell) Attach(conn Connector) {
	c.mu.Lock()
	c.subscribers[conn.GetID()] = conn
	c.mu.Unlock()
	c.touch()
}

func (c *Cell) Detach(connID uuid.UUID) bool {
	c.mu.Lock()
	delete(c.subscribers, connID)
	isEmpty := len(c.subscribers) == 0
	c.mu.Unlock()
	c.touch()
	return isEmpty
}

func (c *Cell) loop() {
	for {
		select {
		case <-c.doneCh:
			return
		case ev := <-c.mailbox:
			c.deliver(ev)
			for range 64 {
				select {
				case next := <-c.mailbox:
					c.deliver(next)
				default:
					goto wait
				}
			}
		wait:
		}
	}
}

func (c *Cell) deliver(ev Eventer) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, conn := range c.subscribers {
		conn.Send(ev, 250*time.Millisecond)
	}
}

func (c *Cell) Stop() {
	close(c.doneCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, conn := range c.subscribers {
		conn.Close()
		delete(c.subscribers, id)
	}
}
