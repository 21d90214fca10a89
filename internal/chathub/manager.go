package chathub

import (
	"context"
	"strings"
	"sync"

	"medchat/backend/internal/apperr"
	"medchat/backend/internal/models"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrConnectionClosed is returned for subscription changes on a connection
// that was never registered or has already disconnected.
var ErrConnectionClosed = errors.New("connection closed")

// Relayer resolves the persisted record a live send refers to. It must
// authorize identity against the conversation before returning anything.
type Relayer interface {
	CanonicalMessage(ctx context.Context, identity models.Identity, conversationID string, seq uint) (*models.Message, error)
}

type connState struct {
	client Client
	rooms  map[string]struct{}
}

// ManagerService owns the lifetime of live connections:
// Connected -> Subscribed(0..N rooms) -> Disconnected.
type ManagerService struct {
	Rooms *Registry
	Relay Relayer

	mu    sync.Mutex
	conns map[string]*connState
}

// NewManagerService wires a lifecycle manager to the room registry and the relay source.
func NewManagerService(rooms *Registry, relay Relayer) *ManagerService {
	return &ManagerService{
		Rooms: rooms,
		Relay: relay,
		conns: make(map[string]*connState),
	}
}

// OnConnect registers a freshly opened connection. Re-registering an existing
// handle keeps its subscriptions.
func (m *ManagerService) OnConnect(client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conns[client.GetConnID()]; ok {
		return
	}
	m.conns[client.GetConnID()] = &connState{client: client, rooms: make(map[string]struct{})}
	liveConnectionsGauge.Inc()

	identity := client.GetIdentity()
	log.WithFields(log.Fields{
		"conn": client.GetConnID(),
		"user": identity.ID,
		"role": identity.Role,
	}).Info("live connection registered")
}

// OnJoin subscribes the connection to a conversation room and acknowledges it.
func (m *ManagerService) OnJoin(client Client, conversationID string) error {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return apperr.Validation("conversationId is required")
	}

	m.mu.Lock()
	state, ok := m.conns[client.GetConnID()]
	if !ok {
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	state.rooms[conversationID] = struct{}{}
	m.Rooms.Join(conversationID, client)
	m.mu.Unlock()

	client.Deliver(models.LiveEvent{Type: models.EventJoined, ConversationID: conversationID})
	return nil
}

// OnLeave unsubscribes the connection from a room and acknowledges it.
func (m *ManagerService) OnLeave(client Client, conversationID string) error {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return apperr.Validation("conversationId is required")
	}

	m.mu.Lock()
	state, ok := m.conns[client.GetConnID()]
	if !ok {
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	delete(state.rooms, conversationID)
	m.Rooms.Leave(conversationID, client)
	m.mu.Unlock()

	client.Deliver(models.LiveEvent{Type: models.EventLeft, ConversationID: conversationID})
	return nil
}

// OnDisconnect leaves every room the connection is in, then discards the
// handle and closes the client. Later calls are no-ops.
func (m *ManagerService) OnDisconnect(client Client) {
	m.mu.Lock()
	state, ok := m.conns[client.GetConnID()]
	if ok {
		for conversationID := range state.rooms {
			m.Rooms.Leave(conversationID, client)
		}
		delete(m.conns, client.GetConnID())
		liveConnectionsGauge.Dec()
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	client.Close()
	log.WithField("conn", client.GetConnID()).Info("live connection closed")
}

// Subscriptions returns the rooms the connection is currently joined to.
func (m *ManagerService) Subscriptions(client Client) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.conns[client.GetConnID()]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(state.rooms))
	for conversationID := range state.rooms {
		out = append(out, conversationID)
	}
	return out
}

// ConnectionCount returns the number of registered connections.
func (m *ManagerService) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// HandleEvent dispatches one inbound frame. Failures are reported back to
// the sending connection as an error frame and returned to the caller.
func (m *ManagerService) HandleEvent(ctx context.Context, client Client, event models.LiveEvent) error {
	var err error
	switch event.Type {
	case models.EventJoin:
		err = m.OnJoin(client, event.ConversationID)
	case models.EventLeave:
		err = m.OnLeave(client, event.ConversationID)
	case models.EventSend:
		err = m.relay(ctx, client, event)
	default:
		err = apperr.Validation("unsupported event type %q", event.Type)
	}

	if err != nil {
		client.Deliver(models.LiveEvent{
			Type:           models.EventError,
			ConversationID: event.ConversationID,
			Error:          apperr.Message(err),
		})
	}
	return err
}

// relay broadcasts the persisted record a send frame points at. Only the
// sequence number is read from the payload; sender, body and timestamp come
// from storage.
func (m *ManagerService) relay(ctx context.Context, client Client, event models.LiveEvent) error {
	conversationID := strings.TrimSpace(event.ConversationID)
	if conversationID == "" && event.Message != nil {
		conversationID = event.Message.ConversationID
	}
	if conversationID == "" {
		return apperr.Validation("conversationId is required")
	}
	if event.Message == nil || event.Message.Seq == 0 {
		return apperr.Validation("message seq is required")
	}

	canonical, err := m.Relay.CanonicalMessage(ctx, client.GetIdentity(), conversationID, event.Message.Seq)
	if err != nil {
		log.WithFields(log.Fields{
			"conn": client.GetConnID(),
			"room": conversationID,
			"seq":  event.Message.Seq,
		}).WithError(err).Warn("live relay rejected")
		return err
	}

	delivered := m.Rooms.BroadcastExcept(conversationID, client, models.LiveEvent{
		Type:           models.EventReceive,
		ConversationID: conversationID,
		Message:        canonical,
	})
	log.WithFields(log.Fields{
		"room":      conversationID,
		"seq":       canonical.Seq,
		"delivered": delivered,
	}).Debug("live message relayed")
	return nil
}
