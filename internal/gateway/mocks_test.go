package gateway

import (
	"context"

	"medchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetOrCreate(ctx context.Context, patientID, clinicianID, patientName, clinicianName string) (*models.Conversation, error) {
	args := m.Called(ctx, patientID, clinicianID, patientName, clinicianName)
	return convArg(args, 0), args.Error(1)
}

func (m *MockStore) FindByPair(ctx context.Context, patientID, clinicianID string) (*models.Conversation, error) {
	args := m.Called(ctx, patientID, clinicianID)
	return convArg(args, 0), args.Error(1)
}

func (m *MockStore) Append(ctx context.Context, conversationID, senderID string, senderRole models.Role, senderName, body string) (*models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, senderRole, senderName, body)
	return msgArg(args, 0), args.Error(1)
}

func (m *MockStore) ListForParticipant(ctx context.Context, identity models.Identity) ([]models.Conversation, error) {
	args := m.Called(ctx, identity)
	if convs, ok := args.Get(0).([]models.Conversation); ok {
		return convs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	return convArg(args, 0), args.Error(1)
}

func (m *MockStore) GetMessage(ctx context.Context, conversationID string, seq uint) (*models.Message, error) {
	args := m.Called(ctx, conversationID, seq)
	return msgArg(args, 0), args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ResolveDisplayName(ctx context.Context, id string, role models.Role) (string, error) {
	args := m.Called(ctx, id, role)
	return args.String(0), args.Error(1)
}

func (m *MockDirectory) ResolveExists(ctx context.Context, id string, role models.Role) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

func convArg(args mock.Arguments, i int) *models.Conversation {
	if conv, ok := args.Get(i).(*models.Conversation); ok {
		return conv
	}
	return nil
}

func msgArg(args mock.Arguments, i int) *models.Message {
	if msg, ok := args.Get(i).(*models.Message); ok {
		return msg
	}
	return nil
}
