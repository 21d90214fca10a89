package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is the durable thread between one patient and one clinician.
// Display names are snapshotted when the conversation is created and are not
// re-synced afterwards.
type Conversation struct {
	// ID is the opaque conversation identifier (UUID).
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	// PatientID and ClinicianID form the unique participant pair.
	PatientID   string `gorm:"type:varchar(64);not null;uniqueIndex:uk_conversation_pair;index" json:"patientId"`
	ClinicianID string `gorm:"type:varchar(64);not null;uniqueIndex:uk_conversation_pair;index" json:"clinicianId"`
	// PatientName and ClinicianName are denormalized display names.
	PatientName   string `gorm:"type:text;not null" json:"patientName"`
	ClinicianName string `gorm:"type:text;not null" json:"clinicianName"`
	// MessageCount is the sequence number of the last appended message.
	MessageCount uint `gorm:"not null;default:0" json:"messageCount"`
	// LastActivityAt is bumped by every append and drives list ordering.
	LastActivityAt time.Time `gorm:"not null;index" json:"lastActivityAt"`
	CreatedAt      time.Time `json:"createdAt"`

	Messages []Message `gorm:"foreignKey:ConversationID;references:ID" json:"messages,omitempty"`
}

// BeforeCreate assigns a new UUID unless one is already set.
func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// Message is one entry of a conversation's append-only log. The pair
// (ConversationID, Seq) is its identity; Seq starts at 1.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ConversationID string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_conversation_seq" json:"conversationId"`
	Seq            uint      `gorm:"not null;uniqueIndex:uk_conversation_seq" json:"seq"`
	SenderID       string    `gorm:"type:varchar(64);not null" json:"senderId"`
	SenderRole     Role      `gorm:"type:varchar(16);not null" json:"senderRole"`
	SenderName     string    `gorm:"type:text;not null" json:"senderName"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	Timestamp      time.Time `gorm:"not null" json:"timestamp"`
}
