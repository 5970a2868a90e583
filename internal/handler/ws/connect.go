package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connector is the external API for a single subscriber socket, decoupling
// the Hub/Cell fan-out from the concrete gorilla/websocket transport.
type Connector interface {
	GetID() uuid.UUID
	GetKey() string
	Send(ev Eventer, timeout time.Duration) bool
	Close()
}

// wsConnector wraps one upgraded websocket connection subscribed to a
// single watch key.
type wsConnector struct {
	id  uuid.UUID
	key string
	wc  *websocket.Conn

	sendCh chan Eventer

	ctx       context.Context
	cancelFn  context.CancelFunc
	closeOnce sync.Once
}

// NewConnector spins up the write pump for a freshly upgraded connection
// and returns the Connector handle the Hub registers.
func NewConnector(ctx context.Context, key string, wc *websocket.Conn, bufferSize int) Connector {
	childCtx, cancel := context.WithCancel(ctx)
	c := &wsConnector{
		id:       uuid.New(),
		key:      key,
		wc:       wc,
		sendCh:   make(chan Eventer, bufferSize),
		ctx:      childCtx,
		cancelFn: cancel,
	}
	go c.writePump()
	return c
}

func (c *wsConnector) GetID() uuid.UUID { return c.id }
func (c *wsConnector) GetKey() string   { return c.key }

// Send enqueues ev for delivery; it never blocks past timeout, so a single
// stalled subscriber cannot stall the cell's delivery loop.
func (c *wsConnector) Send(ev Eventer, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case <-c.ctx.Done():
		return false
	case c.sendCh <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *wsConnector) writePump() {
	defer c.wc.Close()
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.sendCh:
			if !ok {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			c.wc.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.wc.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

// Close terminates the socket exactly once, safe to call from the Hub's
// Unregister path and the HTTP handler's read-loop defer alike.
func (c *wsConnector) Close() {
	c.closeOnce.Do(func() {
		c.cancelFn()
		close(c.sendCh)
	})
}
