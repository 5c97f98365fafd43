package ws

import (
	"encoding/json"
	"net/http"

	"mazadi/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket connections and runs the
// per-connection read loop.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler attached to the hub
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Session validation is the auth layer's concern; the channel
			// accepts any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The identity binding comes from the auth
// middleware via the X-User-ID header when present; clients may also bind
// later with an identify message.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Warn("ws: upgrade failed", map[string]any{"error": err.Error()})
		return
	}

	connID := h.hub.Register(conn, c.GetHeader("X-User-ID"))
	defer h.hub.Unregister(connID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			utils.Warn("ws: malformed message ignored", map[string]any{"conn_id": connID, "error": err.Error()})
			continue
		}

		switch msg.Type {
		case TypeSubscribe:
			h.hub.Subscribe(connID, msg.AuctionID)
		case TypeIdentify:
			h.hub.BindUser(connID, msg.UserID)
		default:
			utils.Warn("ws: unknown message type", map[string]any{"conn_id": connID, "type": msg.Type})
		}
	}
}
