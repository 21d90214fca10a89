package handler

import (
	"medchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ServeWebSocket upgrades an authenticated request to the live channel.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}

	// Upgrade writes its own error response on failure.
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).WithField("user", who.ID).Warn("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(uuid.NewString(), who, conn, h.Hub)
	h.Hub.OnConnect(client)
	client.Run()
}
