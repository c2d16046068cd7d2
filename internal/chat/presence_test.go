package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopConn struct{ name string }

func (*nopConn) Push(*Event) error { return nil }

func TestPresenceRegisterAndLookup(t *testing.T) {
	r := NewPresenceRegistry()
	conn := &nopConn{name: "conn"}

	prev := r.Register("alice", conn)
	assert.Nil(t, prev)

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, conn, got)
	assert.True(t, r.IsOnline("alice"))
	assert.False(t, r.IsOnline("bob"))
	assert.Equal(t, 1, r.Count())
}

func TestPresenceRegisterReplacesPrevious(t *testing.T) {
	r := NewPresenceRegistry()
	first := &nopConn{name: "first"}
	second := &nopConn{name: "second"}

	require.Nil(t, r.Register("alice", first))

	prev := r.Register("alice", second)
	assert.Same(t, first, prev)
	assert.Equal(t, 1, r.Count())

	got, _ := r.Lookup("alice")
	assert.Same(t, second, got)
}

func TestPresenceRegisterSameConnTwice(t *testing.T) {
	r := NewPresenceRegistry()
	conn := &nopConn{name: "conn"}

	require.Nil(t, r.Register("alice", conn))
	assert.Nil(t, r.Register("alice", conn))
	assert.Equal(t, 1, r.Count())
}

func TestPresenceUnregisterByConn(t *testing.T) {
	r := NewPresenceRegistry()
	conn := &nopConn{name: "conn"}
	r.Register("alice", conn)

	userID, ok := r.Unregister(conn)
	assert.True(t, ok)
	assert.Equal(t, "alice", userID)
	assert.False(t, r.IsOnline("alice"))

	// Unregistering again is a no-op
	_, ok = r.Unregister(conn)
	assert.False(t, ok)
}

func TestPresenceUnregisterStaleConnKeepsNewEntry(t *testing.T) {
	r := NewPresenceRegistry()
	first := &nopConn{name: "first"}
	second := &nopConn{name: "second"}

	r.Register("alice", first)
	r.Register("alice", second)

	// The stale connection no longer owns the entry
	_, ok := r.Unregister(first)
	assert.False(t, ok)
	assert.True(t, r.IsOnline("alice"))
}

func TestPresenceOnline(t *testing.T) {
	r := NewPresenceRegistry()
	assert.Empty(t, r.Online())

	r.Register("alice", &nopConn{name: "alice"})
	r.Register("bob", &nopConn{name: "bob"})

	online := r.Online()
	assert.Len(t, online, 2)
	assert.ElementsMatch(t, []string{"alice", "bob"}, online)
}
