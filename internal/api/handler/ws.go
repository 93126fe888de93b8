package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production!
	CheckOrigin: func(r *http.Request) bool { return true },
}

type queueUpdate struct {
	QueueSize int64 `json:"queue_size"`
	Searching bool  `json:"searching"`
}

// WatchQueue upgrades the connection and feeds the waiting screen with live
// queue updates until the client disconnects or their search ends.
func (h *Handler) WatchQueue(c *gin.Context) {
	anonID, ok := h.anonIDFromRequest(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	go h.queueFeed(conn, anonID)
}

func (h *Handler) queueFeed(conn *websocket.Conn, anonID string) {
	defer conn.Close()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	// Drain client frames so close messages are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for range ticker.C {
		size, err := h.Storage.QueueSize()
		if err != nil {
			return
		}
		searching, err := h.Storage.IsSearching(anonID)
		if err != nil {
			return
		}

		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(queueUpdate{QueueSize: size, Searching: searching}); err != nil {
			return
		}
		if !searching {
			// Matched, canceled or expired; the waiting screen is done.
			return
		}
	}
}
