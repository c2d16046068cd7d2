package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleTimeUnmarshal(t *testing.T) {
	t.Run("unix milliseconds", func(t *testing.T) {
		var ft FlexibleTime
		require.NoError(t, json.Unmarshal([]byte("1735689600000"), &ft))
		assert.Equal(t, int64(1735689600000), ft.UnixMilli())
	})

	t.Run("rfc3339 string", func(t *testing.T) {
		var ft FlexibleTime
		require.NoError(t, json.Unmarshal([]byte(`"2025-01-01T00:00:00Z"`), &ft))
		assert.Equal(t, 2025, ft.Year())
	})

	t.Run("garbage", func(t *testing.T) {
		var ft FlexibleTime
		assert.Error(t, json.Unmarshal([]byte(`{"bad": true}`), &ft))
	})
}

func TestEventRoundtrip(t *testing.T) {
	ev := NewEvent(EventTypeSend, SendPayload{
		RecipientID: "bob",
		Text:        "hi",
	})
	ev.ID = "evt-1"

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, EventTypeSend, decoded.Type)
	assert.Equal(t, "evt-1", decoded.ID)

	var payload SendPayload
	require.NoError(t, decoded.ParsePayload(&payload))
	assert.Equal(t, "bob", payload.RecipientID)
	assert.Equal(t, "hi", payload.Text)
}

func TestNewReplyReferencesOriginal(t *testing.T) {
	original := NewEvent(EventTypePing, PingPayload{ClientTime: 42})
	original.ID = "ping-1"

	reply := NewReply(original, EventTypePong, PongPayload{ClientTime: 42, ServerTime: 43})
	assert.Equal(t, "ping-1", reply.ReplyTo)
	assert.Equal(t, EventTypePong, reply.Type)
	assert.WithinDuration(t, time.Now(), reply.Timestamp.Time, time.Minute)
}

func TestParsePayloadNil(t *testing.T) {
	ev := &Event{Type: EventTypeJoin}
	var payload JoinPayload
	require.NoError(t, ev.ParsePayload(&payload))
	assert.Empty(t, payload.UserID)
}
