package models

import (
	"time"

	"gorm.io/gorm"
)

// Message delivery states. Only StatusSent is written today; the
// delivered/read states exist for ack support later.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// MessageMedia describes an optional file attached to a direct message
type MessageMedia struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Message is one direct message between two users. Rows are immutable
// after creation except for Status.
type Message struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID    string `gorm:"not null;index:idx_messages_pair,priority:1" json:"sender_id"`
	RecipientID string `gorm:"not null;index:idx_messages_pair,priority:2" json:"recipient_id"`

	Text  string        `gorm:"type:text;not null" json:"text"`
	Media *MessageMedia `gorm:"type:jsonb;serializer:json" json:"media,omitempty"`

	Status string `gorm:"default:sent;not null" json:"status"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	if m.Status == "" {
		m.Status = MessageStatusSent
	}
	return nil
}
