package models_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"medchat/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConversationBeforeCreate_GeneratesUUID verifies that the hook assigns a valid UUID.
func TestConversationBeforeCreate_GeneratesUUID(t *testing.T) {
	conv := &models.Conversation{PatientID: "p1", ClinicianID: "d1"}
	assert.Empty(t, conv.ID)

	err := conv.BeforeCreate(nil) // nil *gorm.DB is fine for this hook

	require.NoError(t, err)
	parsed, parseErr := uuid.Parse(conv.ID)
	assert.NoError(t, parseErr, "conversation ID must be a UUID")
	assert.NotEqual(t, uuid.Nil, parsed)
}

func TestConversationBeforeCreate_PreservesExistingID(t *testing.T) {
	existing := uuid.New().String()
	conv := &models.Conversation{ID: existing}

	require.NoError(t, conv.BeforeCreate(nil))
	assert.Equal(t, existing, conv.ID)
}

func TestParticipantBeforeCreate_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		p := &models.Patient{FirstName: "Ann"}
		c := &models.Clinician{FirstName: "Bob"}
		require.NoError(t, p.BeforeCreate(nil))
		require.NoError(t, c.BeforeCreate(nil))
		assert.NotContains(t, seen, p.ID)
		assert.NotContains(t, seen, c.ID)
		seen[p.ID] = true
		seen[c.ID] = true
	}
	assert.Len(t, seen, 10)
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
		want  string
	}{
		{name: "both parts", first: "Jane", last: "Doe", want: "Jane Doe"},
		{name: "surrounding spaces", first: "  Jane ", last: " Doe  ", want: "Jane Doe"},
		{name: "missing last name", first: "Jane", last: "", want: "Jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Patient{FirstName: tt.first, LastName: tt.last}
			c := models.Clinician{FirstName: tt.first, LastName: tt.last}
			assert.Equal(t, tt.want, p.DisplayName())
			assert.Equal(t, tt.want, c.DisplayName())
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, models.RolePatient.Valid())
	assert.True(t, models.RoleClinician.Valid())
	assert.False(t, models.Role("admin").Valid())
	assert.False(t, models.Role("doctor").Valid())
	assert.False(t, models.Role("").Valid())
}

// TestStructTags guards the unique indexes that the store relies on.
func TestStructTags(t *testing.T) {
	convType := reflect.TypeOf(models.Conversation{})
	for _, name := range []string{"PatientID", "ClinicianID"} {
		field, ok := convType.FieldByName(name)
		require.True(t, ok)
		assert.Contains(t, field.Tag.Get("gorm"), "uniqueIndex:uk_conversation_pair")
	}

	msgType := reflect.TypeOf(models.Message{})
	for _, name := range []string{"ConversationID", "Seq"} {
		field, ok := msgType.FieldByName(name)
		require.True(t, ok)
		assert.Contains(t, field.Tag.Get("gorm"), "uniqueIndex:uk_conversation_seq")
	}
}

func TestLiveEventJSON(t *testing.T) {
	var ev models.LiveEvent
	raw := `{"type":"send","conversationId":"c1","message":{"seq":3,"senderId":"spoofed","body":"x"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.Equal(t, models.EventSend, ev.Type)
	assert.Equal(t, "c1", ev.ConversationID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, uint(3), ev.Message.Seq)

	out, err := json.Marshal(models.LiveEvent{Type: models.EventJoined, ConversationID: "c1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"joined","conversationId":"c1"}`, string(out))
}
