package handlers

import (
	"net/http"

	"user-server/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSHandler serves the user change feed
type WSHandler struct {
	hub *ws.Hub
	log *logrus.Logger
}

func NewWSHandler(hub *ws.Hub, log *logrus.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleUserEvents upgrades to websocket and keeps the subscriber registered
// until the peer goes away.
// GET /ws/users
func (h *WSHandler) HandleUserEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	h.hub.Register(id, conn)
	entry := h.log.WithField("subscriber", id)
	entry.Info("subscriber connected")

	defer func() {
		h.hub.Unregister(id)
		entry.Info("subscriber disconnected")
	}()

	// Subscribers only listen; reading keeps control frames flowing and
	// notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				entry.WithError(err).Debug("read error")
			}
			return
		}
	}
}

// GetSubscribers GET /ws/subscribers
func (h *WSHandler) GetSubscribers(c *gin.Context) {
	ids := h.hub.List()
	c.JSON(http.StatusOK, gin.H{"subscribers": ids, "count": len(ids)})
}
