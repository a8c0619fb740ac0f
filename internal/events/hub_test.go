package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMakeEnvelope(t *testing.T) {
	raw := Make("req-1", TypeJobDone, map[string]any{"id": "job-1", "leads": 3})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	require.Equal(t, TypeJobDone, e.Type)
	require.Equal(t, 1, e.Version)
	require.Equal(t, "req-1", e.RequestID)
	require.WithinDuration(t, time.Now().UTC(), e.At, time.Minute)

	var data map[string]any
	require.NoError(t, json.Unmarshal(e.Data, &data))
	require.Equal(t, "job-1", data["id"])
}

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish("one")

	require.Equal(t, "one", <-a)
	require.Equal(t, "one", <-b)
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// Buffer is 10; the overflow publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 25; i++ {
			h.Publish("evt")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	require.Len(t, ch, 10, "everything past the buffer was dropped")
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	h.Publish("after close")

	_, open := <-ch
	require.False(t, open, "unsubscribed channel is closed and drained")
}
