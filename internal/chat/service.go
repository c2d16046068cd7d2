package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"github.com/voisoc/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrMissingSender    = errors.New("sender id is required")
	ErrMissingRecipient = errors.New("recipient id is required")
	ErrEmptyText        = errors.New("message text is required")
)

// closer is implemented by connections that can be shut down server-side
type closer interface {
	Close()
}

// Service is the messaging core: presence plus persist-then-push
// delivery. Messages are durable the moment Send returns; real-time
// delivery is best effort on top.
type Service struct {
	db       *gorm.DB
	presence *PresenceRegistry
}

// NewService creates a messaging service around an injected presence
// registry so tests can drive it without a live transport
func NewService(db *gorm.DB, presence *PresenceRegistry) *Service {
	return &Service{
		db:       db,
		presence: presence,
	}
}

// Presence exposes the registry for ops endpoints
func (s *Service) Presence() *PresenceRegistry {
	return s.presence
}

// Join marks a user online on this connection. A previous connection
// for the same user is replaced and closed so its reads terminate.
// Join cannot fail.
func (s *Service) Join(userID string, conn Conn) {
	prev := s.presence.Register(userID, conn)
	if prev != nil {
		logger.Log.Info("presence entry replaced, closing superseded connection",
			logger.WithUserID(userID),
		)
		if c, ok := prev.(closer); ok {
			c.Close()
		}
	} else {
		metrics.Get().WebSocketConnectionsActive.Inc()
	}
}

// Leave removes whichever presence entry holds this connection. Safe to
// call for connections that never joined or were already superseded.
func (s *Service) Leave(conn Conn) {
	if userID, ok := s.presence.Unregister(conn); ok {
		metrics.Get().WebSocketConnectionsActive.Dec()
		logger.Log.Info("user left", logger.WithUserID(userID))
	}
}

// History returns every message between two users, both directions,
// oldest first. No pagination: conversations are returned whole.
func (s *Service) History(ctx context.Context, userID, withUserID string) ([]models.Message, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingSender
	}
	if strings.TrimSpace(withUserID) == "" {
		return nil, ErrMissingRecipient
	}

	messages := make([]models.Message, 0)
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, withUserID, withUserID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	return messages, nil
}

// Send validates, persists, then attempts real-time delivery. The
// message is stored with a server-assigned timestamp and status "sent"
// whether or not the recipient is online. A failed push is logged and
// never surfaced to the sender; the recipient recovers the message
// from history.
func (s *Service) Send(ctx context.Context, senderID, recipientID, text string, media *models.MessageMedia) (*models.Message, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, ErrMissingSender
	}
	if strings.TrimSpace(recipientID) == "" {
		return nil, ErrMissingRecipient
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	message := models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		Media:       media,
		Status:      models.MessageStatusSent,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	metrics.Get().MessagesSentTotal.WithLabelValues("chat").Inc()

	s.deliver(&message)

	return &message, nil
}

// deliver pushes a stored message to the recipient if they are online
func (s *Service) deliver(message *models.Message) {
	conn, online := s.presence.Lookup(message.RecipientID)
	if !online {
		metrics.Get().MessageDeliveriesTotal.WithLabelValues("offline").Inc()
		return
	}

	if err := conn.Push(NewEvent(EventTypeMessage, message)); err != nil {
		// The message is already persisted, so delivery failure only
		// costs the real-time hop
		metrics.Get().MessageDeliveriesTotal.WithLabelValues("failed").Inc()
		logger.Log.Warn("real-time delivery failed",
			logger.WithMessageID(message.ID),
			logger.WithRecipientID(message.RecipientID),
		)
		return
	}

	metrics.Get().MessageDeliveriesTotal.WithLabelValues("pushed").Inc()
}
