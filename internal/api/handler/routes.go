package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route. Chat routes sit behind authMiddleware.
func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chat := r.Group("/api/chat", authMiddleware)
	chat.POST("/get-or-create", h.GetOrCreateConversation)
	chat.POST("/send-message", h.SendMessage)
	chat.GET("/my-conversations", h.MyConversations)
	chat.GET("/conversation/:conversationId", h.GetConversation)
	chat.GET("/ws", h.ServeWebSocket)
}
