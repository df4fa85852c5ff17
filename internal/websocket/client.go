package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one open socket subscribed to the hub. A client opened for a
// single list in shop mode only hears about that list, plus the catalog
// and history events every screen needs.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	send   chan []byte
	listID int64
}

// NewClient wraps conn. A zero listID subscribes to every list.
func NewClient(hub *Hub, conn *ws.Conn, listID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		listID: listID,
	}
}

// wants reports whether msg belongs on this client's screen.
func (c *Client) wants(msg Message) bool {
	if c.listID == 0 {
		return true
	}
	target := msg.ListID()
	if msg.Entity == EntityList {
		target = msg.ID
	}
	return target == 0 || target == c.listID
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump discards inbound frames; clients only listen. A read error means
// the peer closed.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, _, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
	}
}

// writePump forwards queued messages and pings so dead peers get noticed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, ws.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
