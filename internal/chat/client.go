package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/voisoc/backend/internal/logger"
	"github.com/voisoc/backend/internal/metrics"
	"go.uber.org/zap"
)

const (
	// Time allowed to write an event to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next event from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum event size allowed from peer
	maxEventSize = 512 * 1024 // 512KB

	// Send buffer size
	sendBufferSize = 256
)

// Client represents a single WebSocket connection. Its identity comes
// from the token validated at upgrade time, never from event payloads.
type Client struct {
	// The websocket connection
	conn *websocket.Conn

	// Messaging core
	service *Service

	// Authenticated user information
	UserID   string
	Username string

	// Buffered channel of outbound events
	send chan []byte

	// Connection metadata
	ConnectedAt time.Time
	RemoteAddr  string
	UserAgent   string

	// Rate limiting
	rateLimiter *RateLimiter

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc

	// Mutex for connection state
	mu sync.RWMutex

	// Closed flag
	closed bool
}

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	tokens    float64
	maxTokens float64
	refill    float64
	lastTime  time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		tokens:    float64(burst),
		maxTokens: float64(burst),
		refill:    float64(maxPerSecond),
		lastTime:  time.Now(),
	}
}

// Allow checks if an action is allowed and consumes a token
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime).Seconds()
	r.lastTime = now

	// Refill tokens
	r.tokens += elapsed * r.refill
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	// Check and consume
	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

// NewClient creates a new Client
func NewClient(service *Service, conn *websocket.Conn, userID, username string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		service:     service,
		conn:        conn,
		UserID:      userID,
		Username:    username,
		send:        make(chan []byte, sendBufferSize),
		ConnectedAt: time.Now(),
		rateLimiter: NewRateLimiter(10, 20),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ReadPump pumps events from the WebSocket connection into the service.
// Events from one connection are processed in arrival order; that is
// the only ordering the server guarantees.
func (c *Client) ReadPump() {
	defer func() {
		c.service.Leave(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxEventSize)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				logger.Log.Info("client disconnected normally", logger.WithUserID(c.UserID))
			} else if c.ctx.Err() == nil {
				// Only log errors if we're not shutting down
				logger.Log.Error("read error for client", logger.WithUserID(c.UserID), zap.Error(err))
			}
			return
		}

		// Rate limiting
		if !c.rateLimiter.Allow() {
			c.SendError("rate_limited", "Too many events, please slow down")
			continue
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			logger.Log.Warn("WebSocket JSON parse error",
				logger.WithUserID(c.UserID),
				zap.Error(err))
			c.SendError("invalid_json", "Failed to parse event")
			continue
		}

		c.handleEvent(&event)
	}
}

// WritePump pumps queued events to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "server shutdown")
			return

		case event, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, event)
			cancel()

			if err != nil {
				logger.Log.Error("write error for client", logger.WithUserID(c.UserID), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()

			if err != nil {
				logger.Log.Warn("ping failed for client", logger.WithUserID(c.UserID), zap.Error(err))
				return
			}
		}
	}
}

// handleEvent routes one incoming event on its Type field
func (c *Client) handleEvent(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = FlexibleTime{Time: time.Now().UTC()}
	}

	metrics.Get().WebSocketEventsTotal.WithLabelValues(event.Type).Inc()

	switch event.Type {
	case EventTypePing, "heartbeat": // "heartbeat" is an alias for ping
		c.handlePing(event)

	case EventTypeJoin:
		c.handleJoin(event)

	case EventTypeHistory:
		c.handleHistory(event)

	case EventTypeSend:
		c.handleSend(event)

	default:
		logger.Log.Warn("unknown event type",
			logger.WithUserID(c.UserID),
			zap.String("type", event.Type))
		c.SendError("unknown_type", fmt.Sprintf("Unknown event type: %s", event.Type))
	}
}

// handlePing responds to ping events with pong
func (c *Client) handlePing(event *Event) {
	var ping PingPayload
	if err := event.ParsePayload(&ping); err != nil {
		ping.ClientTime = 0
	}

	serverTime := time.Now().UnixMilli()

	pong := NewEvent(EventTypePong, PongPayload{
		ClientTime: ping.ClientTime,
		ServerTime: serverTime,
		Latency:    serverTime - ping.ClientTime,
	})

	if event.ID != "" {
		pong.ReplyTo = event.ID
	}

	// Best-effort pong response - connection may be closing
	_ = c.Push(pong)
}

// handleJoin registers this connection in the presence registry. A
// payload claiming someone else's identity is rejected; the token that
// authenticated the upgrade decides who this connection is.
func (c *Client) handleJoin(event *Event) {
	var join JoinPayload
	if err := event.ParsePayload(&join); err != nil {
		c.SendError("invalid_payload", "Failed to parse join payload")
		return
	}

	if join.UserID != "" && join.UserID != c.UserID {
		logger.Log.Warn("join rejected: identity mismatch",
			logger.WithUserID(c.UserID),
			zap.String("claimed_user_id", join.UserID))
		c.SendError("identity_mismatch", "Cannot join as another user")
		return
	}

	c.service.Join(c.UserID, c)

	_ = c.Push(NewReply(event, EventTypeSystem, SystemPayload{
		Event: "joined",
		Data: map[string]interface{}{
			"user_id": c.UserID,
		},
	}))
}

// handleHistory replies with the full conversation between this user
// and the requested peer
func (c *Client) handleHistory(event *Event) {
	var req HistoryRequestPayload
	if err := event.ParsePayload(&req); err != nil {
		c.SendError("invalid_payload", "Failed to parse history payload")
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	messages, err := c.service.History(ctx, c.UserID, req.WithUserID)
	if err != nil {
		c.SendError("history_failed", err.Error())
		return
	}

	_ = c.Push(NewReply(event, EventTypeHistory, HistoryPayload{
		WithUserID: req.WithUserID,
		Messages:   messages,
	}))
}

// handleSend persists and delivers one direct message. The sender is
// always the authenticated user regardless of payload contents.
func (c *Client) handleSend(event *Event) {
	var send SendPayload
	if err := event.ParsePayload(&send); err != nil {
		c.SendError("invalid_payload", "Failed to parse send payload")
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	message, err := c.service.Send(ctx, c.UserID, send.RecipientID, send.Text, send.Media)
	if err != nil {
		c.SendError("send_failed", err.Error())
		return
	}

	// Ack to the sender with the stored message
	_ = c.Push(NewReply(event, EventTypeMessage, message))
}

// Push queues an event for delivery to this client
func (c *Client) Push(event *Event) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return fmt.Errorf("client connection closed")
	}
	c.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("client shutting down")
	default:
		return fmt.Errorf("send buffer full")
	}
}

// SendError sends an error event to the client
func (c *Client) SendError(code, message string) {
	_ = c.Push(NewErrorEvent(code, message))
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	c.cancel()
	c.conn.Close(websocket.StatusNormalClosure, "closing")
}

// IsClosed returns whether the client connection is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Ensure Client satisfies the presence registry's connection handle
var _ Conn = (*Client)(nil)
