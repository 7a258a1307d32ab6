package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Silver7Surfer/adminbackend/internal/middleware"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const authTimeout = 30 * time.Second

// Broadcaster pushes scoped snapshots to a single client. Implemented
// by the event_handler package; declared here so the ws handler does
// not depend on it directly.
type Broadcaster interface {
	SendPendingWithdrawals(ctx context.Context, c *WSClient)
	SendGameProfiles(ctx context.Context, c *WSClient)
	SendGameStatistics(ctx context.Context, c *WSClient)
}

type wsIncoming struct {
	Action string `json:"action"`
	Token  string `json:"token"`
}

type WSHandler struct {
	hub         *Hub
	auth        *middleware.Auth
	broadcaster Broadcaster
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewWSHandler(hub *Hub, auth *middleware.Auth, broadcaster Broadcaster, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:         hub,
		auth:        auth,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve upgrades the connection and runs the session. The first frame
// must be {"action":"authenticate","token":"..."}; everything before a
// successful authenticate is rejected, and a connection that does not
// authenticate within authTimeout is closed.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	client, ok := h.authenticate(conn)
	if !ok {
		conn.Close()
		return
	}
	defer h.hub.Unregister(client)

	client.SendMessage("authenticated", map[string]interface{}{
		"username": client.Admin.Username,
		"role":     client.Admin.Role,
	})

	ctx := r.Context()
	h.broadcaster.SendPendingWithdrawals(ctx, client)
	h.broadcaster.SendGameProfiles(ctx, client)
	h.broadcaster.SendGameStatistics(ctx, client)

	h.readLoop(ctx, client, conn)
}

func (h *WSHandler) authenticate(conn *websocket.Conn) (*WSClient, bool) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	var msg wsIncoming
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Action != "authenticate" {
		conn.WriteMessage(websocket.TextMessage, errorFrame("authentication required"))
		return nil, false
	}

	admin, err := h.auth.ParseToken(msg.Token)
	if err != nil {
		conn.WriteMessage(websocket.TextMessage, errorFrame("invalid token"))
		return nil, false
	}

	return h.hub.Register(admin, conn), true
}

func (h *WSHandler) readLoop(ctx context.Context, client *WSClient, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wsIncoming
		if err := json.Unmarshal(raw, &msg); err != nil {
			client.SendError("invalid message")
			continue
		}

		switch msg.Action {
		case "get:pendingWithdrawals":
			h.broadcaster.SendPendingWithdrawals(ctx, client)
		case "get:gameProfiles":
			h.broadcaster.SendGameProfiles(ctx, client)
		case "get:gameStatistics":
			h.broadcaster.SendGameStatistics(ctx, client)
		case "ping":
			client.SendMessage("pong", nil)
		default:
			client.SendError("unknown action: " + msg.Action)
		}
	}
}

func errorFrame(message string) []byte {
	payload, _ := json.Marshal(WSResponse{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	})
	return payload
}
