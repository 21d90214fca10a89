package chathub

import (
	"context"
	"sync"

	"medchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// fakeClient records delivered frames instead of writing to a socket.
type fakeClient struct {
	id       string
	identity models.Identity

	mu     sync.Mutex
	events []models.LiveEvent
	closed bool
	full   bool
	closes int
}

func newFakeClient(id string, role models.Role) *fakeClient {
	return &fakeClient{id: id, identity: models.Identity{ID: "user-" + id, Role: role}}
}

func (f *fakeClient) GetConnID() string {
	return f.id
}

func (f *fakeClient) GetIdentity() models.Identity {
	return f.identity
}

func (f *fakeClient) Deliver(event models.LiveEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return false
	}
	f.events = append(f.events, event)
	return true
}

func (f *fakeClient) Run() {}

func (f *fakeClient) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closes++
}

func (f *fakeClient) received() []models.LiveEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LiveEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeClient) receivedOfType(t models.EventType) []models.LiveEvent {
	var out []models.LiveEvent
	for _, ev := range f.received() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type MockRelayer struct {
	mock.Mock
}

func (m *MockRelayer) CanonicalMessage(ctx context.Context, identity models.Identity, conversationID string, seq uint) (*models.Message, error) {
	args := m.Called(ctx, identity, conversationID, seq)
	if msg, ok := args.Get(0).(*models.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}
