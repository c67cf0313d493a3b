package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/planhive/planhive/backend/internal/services"
	"github.com/planhive/planhive/backend/internal/utils"
	"github.com/planhive/planhive/backend/pkg/logger"
	"github.com/planhive/planhive/backend/pkg/response"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub *services.Hub
}

func NewWSHandler(hub *services.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Serve upgrades the request to a WebSocket connection and registers it
// with the hub. Browsers cannot set headers on WebSocket requests, so the
// token is also accepted as a query parameter.
// GET /api/ws?token=...&service=true
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if token == "" {
		response.Unauthorized(c, "missing token")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	serviceClient := c.Query("service") == "true"
	client := h.hub.Register(claims.UserID, claims.Name, serviceClient)
	logger.Info().
		Str("connection_id", client.ID).
		Uint("user_id", client.UserID).
		Bool("service", serviceClient).
		Msg("websocket connected")

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

// writePump drains the client's outbox onto the wire. A single consumer
// per connection keeps messages in the order they were queued.
func (h *WSHandler) writePump(conn *websocket.Conn, client *services.Client) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Outbox():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump watches for the peer closing the connection. Inbound frames
// carry no application data and are discarded.
func (h *WSHandler) readPump(conn *websocket.Conn, client *services.Client) {
	defer func() {
		h.hub.Unregister(client.ID)
		conn.Close()
		logger.Info().
			Str("connection_id", client.ID).
			Uint("user_id", client.UserID).
			Msg("websocket disconnected")
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
