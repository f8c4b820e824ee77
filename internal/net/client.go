package net

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FadingInk/internal/logging"

	"github.com/gorilla/websocket"
)

// Client is a joining surface's connection to a hub.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	mu     sync.Mutex
	addr   string

	// OnStroke receives strokes relayed by the hub.
	OnStroke func(StrokeMessage)
}

// Dial connects to the hub at url (ws://host:port/path).
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)
	c := &Client{
		conn:   conn,
		logger: logging.Component(logger, "client"),
		addr:   conn.LocalAddr().String(),
	}
	c.logger.Info("connected to hub", "url", url, "local", c.addr)
	return c, nil
}

// LocalAddr is the address the hub sees this client as.
func (c *Client) LocalAddr() string { return c.addr }

// Send publishes a local stroke.
func (c *Client) Send(s StrokeMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.conn.WriteJSON(Message{Type: TypeStroke, Stroke: &s}); err != nil {
		return fmt.Errorf("send stroke %s: %w", s.ID, err)
	}
	return nil
}

// Run reads relayed strokes until the connection fails or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read from hub: %w", err)
		}
		if msg.Type != TypeStroke || msg.Stroke == nil {
			continue
		}
		if err := msg.Stroke.Validate(); err != nil {
			c.logger.Warn("invalid stroke from hub", "err", err)
			continue
		}
		if c.OnStroke != nil {
			c.OnStroke(*msg.Stroke)
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.mu.Unlock()
	return c.conn.Close()
}
