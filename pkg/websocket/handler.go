package websocket

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config carries the tunables for live tracking connections.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	AllowedOrigins  []string
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      Config
}

func NewHandler(cfg Config) *Handler {
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = cfg.PongTimeout * 9 / 10
	}

	hub := NewHub()
	go hub.Run()

	return &Handler{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		for _, origin := range allowed {
			if origin == "*" || origin == r.Header.Get("Origin") {
				return true
			}
		}
		return false
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(h.hub, conn, userObjectID, h.cfg.PingInterval, h.cfg.PongTimeout)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()

	// Watchers opening /tracking/:id/live join the session room directly.
	if sessionID := c.Param("id"); sessionID != "" {
		h.hub.JoinSession(client, sessionID)
	}
}

// SendTrackingUpdate pushes a live tracking event to the session's room.
func (h *Handler) SendTrackingUpdate(sessionID string, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		RoomID:    sessionRoom(sessionID),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendSessionUpdate(sessionID, message)
}

// SendUserNotification pushes a message to every connection the user has
// open.
func (h *Handler) SendUserNotification(userID primitive.ObjectID, notificationType string, data map[string]interface{}) {
	message := Message{
		Type:      notificationType,
		UserID:    userID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToUser(userID, message)
}
