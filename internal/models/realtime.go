package models

// EventType names a live channel frame.
type EventType string

const (
	// inbound
	EventJoin  EventType = "join"
	EventLeave EventType = "leave"
	EventSend  EventType = "send"

	// outbound
	EventReceive EventType = "receive"
	EventJoined  EventType = "joined"
	EventLeft    EventType = "left"
	EventError   EventType = "error"
)

// LiveEvent is the JSON frame exchanged over the live channel.
// On inbound "send" frames only Message.Seq is read; every other message
// field is replaced by the persisted record before relaying.
type LiveEvent struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	Message        *Message  `json:"message,omitempty"`
	Error          string    `json:"error,omitempty"`
}
