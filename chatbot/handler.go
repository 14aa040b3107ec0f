package chatbot

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SessionExpired is sent to a socket whose session ended
const SessionExpired = "Your session has expired. Please reload the page."

// SessionResolver returns the Client and Hub of the request's session
type SessionResolver func(r *http.Request) (*Client, *Hub, error)

// Handler handles live view WebSocket connections
type Handler struct {
	resolve SessionResolver
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler creates a new live view handler. A zero timeout leaves searches
// unbounded.
func NewHandler(resolve SessionResolver, timeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		resolve: resolve,
		timeout: timeout,
		logger:  logger,
	}
}

// ServeHTTP upgrades to WebSocket and submits every query the socket sends
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client, hub, err := h.resolve(r)
	if err != nil {
		h.logger.Debug("Could not resolve session for socket", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	hub.Register(conn)
	defer hub.Unregister(conn)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Socket read failed", zap.Error(err))
			}
			return
		}

		// the session's transcript can expire while the socket is open
		if current, _, err := h.resolve(r); err != nil || current != client {
			h.logger.Debug("Session ended while socket was open", zap.Error(err))
			h.send(hub, conn, ServerMessage{Type: MessageTypeError, Error: SessionExpired})
			return
		}

		// searches outlive the socket so the transcript is completed either way
		ctx, cancel := h.searchContext()
		sub, err := client.Start(ctx, msg.Query)
		switch {
		case errors.Is(err, ErrEmptyQuery):
			cancel()
			continue
		case errors.Is(err, ErrBusy):
			cancel()
			h.send(hub, conn, ServerMessage{Type: MessageTypeBusy})
			continue
		case err != nil:
			cancel()
			h.send(hub, conn, ServerMessage{Type: MessageTypeError, Error: "Could not submit query"})
			continue
		}

		go func() {
			defer cancel()
			<-sub.Done
			hub.Broadcast(ServerMessage{Type: MessageTypeDone, Seq: sub.Seq})
		}()
	}
}

func (h *Handler) searchContext() (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(context.Background(), h.timeout)
	}
	return context.WithCancel(context.Background())
}

func (h *Handler) send(hub *Hub, conn *websocket.Conn, msg ServerMessage) {
	if err := hub.Send(conn, msg); err != nil {
		h.logger.Debug("Failed to write to socket", zap.Error(err))
	}
}
