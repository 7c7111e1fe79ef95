package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent("user.registered", "user-1", "user", "auth-service", map[string]string{
		"email": "alice@example.com",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "user.registered", evt.EventType)
	assert.Equal(t, "user-1", evt.AggregateID)
	assert.Equal(t, "user", evt.AggregateType)
	assert.Equal(t, 1, evt.Version)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEventRoundTrip(t *testing.T) {
	evt, err := NewEvent("user.registered", "user-1", "user", "auth-service", map[string]string{
		"email": "alice@example.com",
	})
	require.NoError(t, err)
	evt.WithCorrelationID("corr-123")

	data, err := evt.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)

	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, "corr-123", decoded.CorrelationID)
	assert.JSONEq(t, string(evt.Data), string(decoded.Data))
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("user.registered", "user-1", "user", "auth-service", make(chan int))
	assert.Error(t, err)
}
