package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"FadingInk/internal/logging"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// peer is one connected surface. gorilla connections allow a single writer,
// so writes go through mu.
type peer struct {
	conn *websocket.Conn
	addr string
	mu   sync.Mutex
}

func (p *peer) send(m Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteJSON(m)
}

// Hub is run by the hosting surface. It accepts websocket peers, hands
// their strokes to OnStroke and relays them to every other peer.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.RWMutex
	peers map[*peer]struct{}

	// OnStroke receives every valid stroke sent by a peer.
	OnStroke func(StrokeMessage)
	// OnPeers receives the peer count whenever a peer joins or leaves.
	OnPeers func(int)
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Peers are other drawing surfaces on the LAN, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logging.Component(logger, "hub"),
		peers:  make(map[*peer]struct{}),
	}
}

func (h *Hub) add(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	n := len(h.peers)
	h.mu.Unlock()
	h.logger.Info("peer connected", "addr", p.addr, "peers", n)
	if h.OnPeers != nil {
		h.OnPeers(n)
	}
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	n := len(h.peers)
	h.mu.Unlock()
	h.logger.Info("peer disconnected", "addr", p.addr, "peers", n)
	if h.OnPeers != nil {
		h.OnPeers(n)
	}
}

func (h *Hub) peerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// ServeHTTP upgrades the request and serves the peer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)
	p := &peer{conn: conn, addr: conn.RemoteAddr().String()}
	h.add(p)
	defer func() {
		h.remove(p)
		conn.Close()
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("peer read failed", "addr", p.addr, "err", err)
			}
			return
		}
		if msg.Type != TypeStroke || msg.Stroke == nil {
			h.logger.Debug("ignoring message", "addr", p.addr, "type", msg.Type)
			continue
		}
		if err := msg.Stroke.Validate(); err != nil {
			h.logger.Warn("invalid stroke", "addr", p.addr, "err", err)
			continue
		}
		if h.OnStroke != nil {
			h.OnStroke(*msg.Stroke)
		}
		h.relay(msg, p)
	}
}

// Broadcast sends a local stroke to every peer.
func (h *Hub) Broadcast(s StrokeMessage) {
	h.relay(Message{Type: TypeStroke, Stroke: &s}, nil)
}

func (h *Hub) relay(m Message, exclude *peer) {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		if p != exclude {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range targets {
		if err := p.send(m); err != nil {
			h.logger.Warn("send to peer failed", "addr", p.addr, "err", err)
		}
	}
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()

	for p := range peers {
		p.mu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
		p.mu.Unlock()
		p.conn.Close()
	}
}

// Serve runs an HTTP server for h on ln at path until ctx is done.
func Serve(ctx context.Context, ln net.Listener, path string, h *Hub) error {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	h.logger.Info("hub listening", "addr", ln.Addr().String(), "path", path)

	select {
	case <-ctx.Done():
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown hub: %w", err)
		}
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve hub: %w", err)
	}
}
