package handler

import (
	"net/http"

	"medchat/backend/internal/auth"
	"medchat/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type getOrCreateRequest struct {
	PatientID   string `json:"patientId" binding:"required"`
	ClinicianID string `json:"clinicianId" binding:"required"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Body           string `json:"body" binding:"required"`
}

type sendMessageResponse struct {
	Message      *models.Message      `json:"message"`
	Conversation *models.Conversation `json:"conversation"`
}

func identity(c *gin.Context) (models.Identity, bool) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
	}
	return id, ok
}

// GetOrCreateConversation handles POST /api/chat/get-or-create.
func (h *Handler) GetOrCreateConversation(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}

	var req getOrCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "patientId and clinicianId are required"})
		return
	}

	conv, err := h.Gateway.GetOrCreateConversation(c.Request.Context(), who, req.PatientID, req.ClinicianID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// SendMessage handles POST /api/chat/send-message. Live delivery is left to
// the client, which relays the returned seq over the websocket.
func (h *Handler) SendMessage(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "conversationId and body are required"})
		return
	}

	msg, conv, err := h.Gateway.SendMessage(c.Request.Context(), who, req.ConversationID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sendMessageResponse{Message: msg, Conversation: conv})
}

// MyConversations handles GET /api/chat/my-conversations.
func (h *Handler) MyConversations(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}

	convs, err := h.Gateway.ListConversations(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// GetConversation handles GET /api/chat/conversation/:conversationId.
func (h *Handler) GetConversation(c *gin.Context) {
	who, ok := identity(c)
	if !ok {
		return
	}

	conv, err := h.Gateway.GetConversation(c.Request.Context(), who, c.Param("conversationId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
