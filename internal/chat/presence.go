package chat

import (
	"sync"
)

// Conn is the minimal connection handle the presence registry tracks.
// The WebSocket client implements it; tests use in-memory stubs.
type Conn interface {
	// Push delivers a server-initiated event to the peer
	Push(event *Event) error
}

// PresenceRegistry maps online users to their live connection. Exactly
// one entry per user: a second connection for the same user replaces
// the first (last connect wins). Entries only exist between a join and
// the matching disconnect; nothing here is ever persisted.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]Conn
}

// NewPresenceRegistry creates an empty registry
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[string]Conn),
	}
}

// Register binds a user to a connection, replacing any prior entry.
// The superseded connection is returned so the caller can close it.
func (r *PresenceRegistry) Register(userID string, conn Conn) Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.entries[userID]
	r.entries[userID] = conn
	if prev == conn {
		return nil
	}
	return prev
}

// Unregister removes the entry holding this connection and reports
// which user it belonged to. A connection that was superseded by a
// newer one no longer appears in the registry, so its disconnect is a
// no-op here.
func (r *PresenceRegistry) Unregister(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, c := range r.entries {
		if c == conn {
			delete(r.entries, userID)
			return userID, true
		}
	}
	return "", false
}

// Lookup returns the live connection for a user, if any
func (r *PresenceRegistry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.entries[userID]
	return conn, ok
}

// IsOnline reports whether a user has a registered connection
func (r *PresenceRegistry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Online returns the ids of all registered users
func (r *PresenceRegistry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.entries))
	for userID := range r.entries {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of registered connections
func (r *PresenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
