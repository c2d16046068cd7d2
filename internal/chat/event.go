package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/voisoc/backend/internal/models"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	// Try to unmarshal as Unix milliseconds (integer)
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	// Fall back to RFC3339 string format
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements custom marshaling (always output as RFC3339)
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Event kinds. Clients send join, history, send, ping; the server sends
// the rest. Every incoming event is routed on this field, never on the
// payload shape.
const (
	// Client-initiated
	EventTypeJoin    = "join"
	EventTypeHistory = "history"
	EventTypeSend    = "send"
	EventTypePing    = "ping"

	// Server-initiated
	EventTypeMessage = "message"
	EventTypeSystem  = "system"
	EventTypeError   = "error"
	EventTypePong    = "pong"
)

// Event represents a WebSocket event
type Event struct {
	// Type identifies the event kind for routing
	Type string `json:"type"`

	// Payload contains the event-specific data
	Payload interface{} `json:"payload,omitempty"`

	// ID is a unique event identifier for acknowledgment
	ID string `json:"id,omitempty"`

	// ReplyTo references the original event ID for responses
	ReplyTo string `json:"reply_to,omitempty"`

	// Timestamp when the event was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewReply creates a reply event to an original event
func NewReply(original *Event, eventType string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		ReplyTo:   original.ID,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(code string, message string) *Event {
	return &Event{
		Type: EventTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// ParsePayload unmarshals the payload into a specific type
func (e *Event) ParsePayload(target interface{}) error {
	if e.Payload == nil {
		return nil
	}

	// Re-marshal and unmarshal to properly type the payload
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// ErrorPayload represents an error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SystemPayload represents system event payloads
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// PingPayload represents a ping event payload
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload represents a pong event payload
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// JoinPayload announces the user behind a connection. The user id is
// optional; when present it must match the authenticated identity.
type JoinPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// SendPayload carries an outbound direct message. Any sender field a
// client includes is ignored; the authenticated identity is the sender.
type SendPayload struct {
	RecipientID string               `json:"recipient_id"`
	Text        string               `json:"text"`
	Media       *models.MessageMedia `json:"media,omitempty"`
}

// HistoryRequestPayload asks for the conversation with one other user
type HistoryRequestPayload struct {
	WithUserID string `json:"with_user_id"`
	Limit      int    `json:"limit,omitempty"`
}

// HistoryPayload is the full conversation, oldest first
type HistoryPayload struct {
	WithUserID string           `json:"with_user_id"`
	Messages   []models.Message `json:"messages"`
}
