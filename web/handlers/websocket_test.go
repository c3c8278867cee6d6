package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpxrk/pactwise-memory/web/handlers"
)

func TestWebSocketHub_BroadcastReachesClients(t *testing.T) {
	hub := handlers.NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	client := &handlers.MockClient{SendChan: make(chan []byte, 8)}
	hub.Register(client)

	// Give the hub loop a moment to process the registration.
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(handlers.ActivityEvent{
		Type:     handlers.EventShortTermStored,
		MemoryID: "mem-1",
		UserID:   "user-1",
	})

	select {
	case raw := <-client.SendChan:
		var ev handlers.ActivityEvent
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, handlers.EventShortTermStored, ev.Type)
		assert.Equal(t, "mem-1", ev.MemoryID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestWebSocketHub_SlowClientDisconnected(t *testing.T) {
	hub := handlers.NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	// Zero-capacity channel: the first broadcast cannot be delivered.
	slow := &handlers.MockClient{SendChan: make(chan []byte)}
	hub.Register(slow)
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(handlers.ActivityEvent{Type: handlers.EventReinforced})
	time.Sleep(10 * time.Millisecond)

	// The hub closes the send channel when it drops a client.
	select {
	case _, open := <-slow.SendChan:
		assert.False(t, open, "slow client's channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("slow client was not disconnected")
	}
}

func TestWebSocketHub_RejectsUnknownOrigin(t *testing.T) {
	hub := handlers.NewWebSocketHub("http://127.0.0.1:7070")

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()

	hub.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
