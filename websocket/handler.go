package websocket

import (
	"net/http"
	"time"

	"brainquest/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const pongWait = 60 * time.Second

// Handler upgrades authenticated requests and subscribes them to the hub
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler accepts connections from the given origins; an empty list
// accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Progress streams the caller's progress, badge, level and challenge events.
// It must run after AuthMiddleware.
func (h *Handler) Progress(c *gin.Context) {
	userID := middlewares.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization token required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade error", "error", err)
		return
	}

	client := &ProgressClient{Conn: conn, UserID: userID}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	welcome := map[string]interface{}{
		"type":    "connected",
		"message": "Connected to progress updates",
		"userId":  userID,
	}
	if err := client.SafeWriteJSON(welcome); err != nil {
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reads only keep the connection alive; clients send nothing meaningful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.hub.log.Warn("progress websocket error", "userId", userID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}
