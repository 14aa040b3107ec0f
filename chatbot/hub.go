package chatbot

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait bounds a single socket write
	writeWait = 10 * time.Second
	// sendBuffer is the number of messages queued per socket before it is dropped
	sendBuffer = 64
)

var errSocketGone = errors.New("socket is not registered")

type peer struct {
	conn *websocket.Conn
	send chan ServerMessage
}

// Hub is a View that mirrors a session's transcript to every live socket of
// that session. Each socket has its own writer, so a stalled socket never
// blocks the Client appending to the hub.
type Hub struct {
	mu     sync.Mutex
	peers  map[*websocket.Conn]*peer
	logger *zap.Logger
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		peers:  make(map[*websocket.Conn]*peer),
		logger: logger,
	}
}

// Register adds conn to the hub and starts its writer
func (h *Hub) Register(conn *websocket.Conn) {
	p := &peer{conn: conn, send: make(chan ServerMessage, sendBuffer)}

	h.mu.Lock()
	h.peers[conn] = p
	n := len(h.peers)
	h.mu.Unlock()

	h.logger.Debug("Socket registered", zap.Int("sockets", n))
	go h.write(p)
}

// Unregister removes conn from the hub. Queued messages are flushed before
// the socket is closed.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	h.remove(conn)
	n := len(h.peers)
	h.mu.Unlock()

	h.logger.Debug("Socket unregistered", zap.Int("sockets", n))
}

// remove must be called with h.mu held
func (h *Hub) remove(conn *websocket.Conn) {
	if p, ok := h.peers[conn]; ok {
		delete(h.peers, conn)
		close(p.send)
	}
}

func (h *Hub) write(p *peer) {
	defer p.conn.Close()
	for msg := range p.send {
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("Dropping socket after failed write", zap.Error(err))
			h.mu.Lock()
			h.remove(p.conn)
			h.mu.Unlock()
			// discard anything queued before the removal
			for range p.send {
			}
			return
		}
	}
}

func (h *Hub) Append(m Message) {
	html, err := RenderHTML(m)
	if err != nil {
		h.logger.Error("Could not render message", zap.Error(err))
		return
	}
	h.Broadcast(ServerMessage{Type: MessageTypeMessage, Message: &m, HTML: string(html)})
}

func (h *Hub) ScrollToEnd() {
	h.Broadcast(ServerMessage{Type: MessageTypeScroll})
}

func (h *Hub) ClearInput() {
	h.Broadcast(ServerMessage{Type: MessageTypeClear})
}

// Broadcast queues msg for every socket without blocking. Sockets whose queue
// is full are dropped.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, p := range h.peers {
		select {
		case p.send <- msg:
		default:
			h.logger.Warn("Dropping socket with full send queue")
			h.remove(conn)
		}
	}
}

// Send queues msg for a single registered socket
func (h *Hub) Send(conn *websocket.Conn, msg ServerMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.peers[conn]
	if !ok {
		return errSocketGone
	}
	select {
	case p.send <- msg:
		return nil
	default:
		h.remove(conn)
		return errors.New("socket send queue is full")
	}
}
