package gateway

import (
	"context"
	"strings"

	"medchat/backend/internal/access"
	"medchat/backend/internal/apperr"
	"medchat/backend/internal/directory"
	"medchat/backend/internal/models"
	"medchat/backend/internal/storage"

	log "github.com/sirupsen/logrus"
)

const notParticipantMsg = "you are not a participant in this conversation"

// Service authorizes every read and write against the caller's identity
// before touching the conversation store.
type Service struct {
	Store     storage.ConversationStore
	Directory directory.Directory
}

// NewService builds a gateway over the given store and directory.
func NewService(store storage.ConversationStore, dir directory.Directory) *Service {
	return &Service{Store: store, Directory: dir}
}

// GetOrCreateConversation returns the conversation between patientID and
// clinicianID, creating it when absent. Only a patient may open a
// conversation, and only for themselves.
func (s *Service) GetOrCreateConversation(ctx context.Context, identity models.Identity, patientID, clinicianID string) (*models.Conversation, error) {
	patientID = strings.TrimSpace(patientID)
	clinicianID = strings.TrimSpace(clinicianID)
	if patientID == "" || clinicianID == "" {
		return nil, apperr.Validation("patientId and clinicianId are required")
	}

	switch identity.Role {
	case models.RolePatient:
		if identity.ID != patientID {
			accessDeniedCounter.WithLabelValues("get_or_create").Inc()
			return nil, apperr.Forbidden("patients may only open conversations for themselves")
		}
	case models.RoleClinician:
		accessDeniedCounter.WithLabelValues("get_or_create").Inc()
		return nil, apperr.Forbidden("only patients may open conversations")
	default:
		accessDeniedCounter.WithLabelValues("get_or_create").Inc()
		return nil, apperr.Forbidden("role %q may not open conversations", identity.Role)
	}

	existing, err := s.Store.FindByPair(ctx, patientID, clinicianID)
	if err == nil {
		return existing, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	patientName, err := s.participantName(ctx, patientID, models.RolePatient)
	if err != nil {
		return nil, err
	}
	clinicianName, err := s.participantName(ctx, clinicianID, models.RoleClinician)
	if err != nil {
		return nil, err
	}

	conv, err := s.Store.GetOrCreate(ctx, patientID, clinicianID, patientName, clinicianName)
	if err != nil {
		return nil, err
	}
	conversationsOpenedCounter.Inc()
	log.WithFields(log.Fields{
		"conversation": conv.ID,
		"user":         identity.ID,
	}).Info("conversation opened")
	return conv, nil
}

func (s *Service) participantName(ctx context.Context, id string, role models.Role) (string, error) {
	exists, err := s.Directory.ResolveExists(ctx, id, role)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", apperr.NotFound("%s %s not found", role, id)
	}
	return s.Directory.ResolveDisplayName(ctx, id, role)
}

// authorized loads the conversation and checks identity against it.
func (s *Service) authorized(ctx context.Context, identity models.Identity, conversationID, operation string) (*models.Conversation, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apperr.Validation("conversationId is required")
	}

	conv, err := s.Store.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !access.Authorize(identity, conv) {
		accessDeniedCounter.WithLabelValues(operation).Inc()
		log.WithFields(log.Fields{
			"conversation": conversationID,
			"user":         identity.ID,
			"role":         identity.Role,
		}).Warn("access denied")
		return nil, apperr.Forbidden(notParticipantMsg)
	}
	return conv, nil
}

// SendMessage appends body to the conversation as identity and returns the
// persisted message together with the updated conversation. It does not
// broadcast; live delivery is the caller's concern.
func (s *Service) SendMessage(ctx context.Context, identity models.Identity, conversationID, body string) (*models.Message, *models.Conversation, error) {
	conv, err := s.authorized(ctx, identity, conversationID, "send")
	if err != nil {
		return nil, nil, err
	}

	senderName, err := s.Directory.ResolveDisplayName(ctx, identity.ID, identity.Role)
	if err != nil {
		return nil, nil, err
	}

	msg, err := s.Store.Append(ctx, conv.ID, identity.ID, identity.Role, senderName, body)
	if err != nil {
		return nil, nil, err
	}
	messagesAppendedCounter.WithLabelValues(string(identity.Role)).Inc()

	conv.MessageCount = msg.Seq
	conv.LastActivityAt = msg.Timestamp
	conv.Messages = append(conv.Messages, *msg)
	return msg, conv, nil
}

// ListConversations returns the caller's conversations, newest activity first.
func (s *Service) ListConversations(ctx context.Context, identity models.Identity) ([]models.Conversation, error) {
	if !identity.Role.Valid() {
		accessDeniedCounter.WithLabelValues("list").Inc()
		return nil, apperr.Forbidden("role %q may not list conversations", identity.Role)
	}
	return s.Store.ListForParticipant(ctx, identity)
}

// GetConversation returns the conversation with its full message history.
func (s *Service) GetConversation(ctx context.Context, identity models.Identity, conversationID string) (*models.Conversation, error) {
	return s.authorized(ctx, identity, conversationID, "get")
}

// CanonicalMessage returns the persisted message at seq for a participant.
// The live relay broadcasts only what this returns.
func (s *Service) CanonicalMessage(ctx context.Context, identity models.Identity, conversationID string, seq uint) (*models.Message, error) {
	conv, err := s.authorized(ctx, identity, conversationID, "relay")
	if err != nil {
		return nil, err
	}
	msg, err := s.Store.GetMessage(ctx, conv.ID, seq)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != identity.ID || msg.SenderRole != identity.Role {
		accessDeniedCounter.WithLabelValues("relay").Inc()
		return nil, apperr.Forbidden("only the sender may relay a message")
	}
	return msg, nil
}
