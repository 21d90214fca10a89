package handler

import (
	"context"
	"net/http"
	"strings"

	"medchat/backend/internal/chathub"
	"medchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

// Gateway is the authorized chat surface the HTTP routes call into.
type Gateway interface {
	GetOrCreateConversation(ctx context.Context, identity models.Identity, patientID, clinicianID string) (*models.Conversation, error)
	SendMessage(ctx context.Context, identity models.Identity, conversationID, body string) (*models.Message, *models.Conversation, error)
	ListConversations(ctx context.Context, identity models.Identity) ([]models.Conversation, error)
	GetConversation(ctx context.Context, identity models.Identity, conversationID string) (*models.Conversation, error)
}

// Handler holds the dependencies of the HTTP and websocket routes.
type Handler struct {
	Gateway Gateway
	Hub     *chathub.ManagerService

	upgrader websocket.Upgrader
}

// NewHandler builds the route handlers. Websocket upgrades are accepted only
// from allowedOrigins; "*" allows any origin.
func NewHandler(gw Gateway, hub *chathub.ManagerService, allowedOrigins []string) *Handler {
	return &Handler{
		Gateway: gw,
		Hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send an Origin header.
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
