// Package ws serves the WebSocket chat transport.
package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/model/card"
	"github.com/zhouzirui/teams-relay/backend/internal/model/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
	inboxSize  = 8

	typeMessage   = "message"
	typeReply     = "reply"
	typeError     = "error"
	typeConnected = "connected"
)

// Turns is the conversation core behind the socket.
type Turns interface {
	HandleTurn(ctx context.Context, in chat.Inbound) (chat.Reply, error)
}

// Handler serves chat turns over a WebSocket.
type Handler struct {
	turns      Turns
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	pongWait   time.Duration
	pingPeriod time.Duration
}

// New creates the WebSocket handler.
func New(turns Turns, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		turns: turns,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:     logger.Named("ws"),
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

// RegisterRoutes mounts the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{userID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	UserName string `json:"userName"`
}

type outgoingMessage struct {
	Type      string     `json:"type"`
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"userId,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Text      string     `json:"text,omitempty"`
	Card      *card.Card `json:"card,omitempty"`
	Message   string     `json:"message,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := h.logger.With(zap.String("conn", connID))
	logger.Info("connection opened")
	defer logger.Info("connection closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: typeConnected, ID: connID, UserID: userID})

	// The reader keeps consuming frames (and pongs) while a turn runs here;
	// this goroutine is the only data writer.
	inbox := make(chan inboundMessage, inboxSize)
	go h.readLoop(ctx, cancel, conn, inbox, logger)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbox:
			if !ok {
				return
			}
			if !h.handleMessage(ctx, conn, userID, msg, logger) {
				return
			}
		}
	}
}

// readLoop forwards inbound frames until the peer goes away, then cancels
// the connection context.
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, inbox chan<- inboundMessage, logger *zap.Logger) {
	defer close(inbox)
	defer cancel()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("read error", zap.Error(err))
			}
			return
		}

		select {
		case inbox <- msg:
		case <-ctx.Done():
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}

// handleMessage runs one turn and writes its reply. It reports false when
// the connection should close.
func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, userID string, msg inboundMessage, logger *zap.Logger) bool {
	if msg.Type != typeMessage {
		h.sendError(conn, "unsupported message type: "+msg.Type)
		return true
	}

	reply, err := h.turns.HandleTurn(ctx, chat.Inbound{UserID: userID, UserName: msg.UserName, Text: msg.Text})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		logger.Warn("turn failed", zap.Error(err))
		h.sendError(conn, "turn failed")
		return true
	}

	h.send(conn, outgoingMessage{
		Type: typeReply,
		Kind: string(reply.Kind),
		Text: reply.Text,
		Card: reply.Card,
	})
	return true
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outgoingMessage{Type: typeError, Message: message})
}

// pingLoop keeps the read deadline alive. WriteControl may run alongside
// the handler's writes.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
