package handlers

import "time"

// Activity event types broadcast over the WebSocket feed.
const (
	EventShortTermStored = "short_term_stored"
	EventLongTermStored  = "long_term_stored"
	EventReinforced      = "memory_reinforced"
	EventVerified        = "memory_verified"
	EventConsolidated    = "consolidation_run"
)

// ActivityEvent is one entry on the live activity feed.
type ActivityEvent struct {
	Type     string    `json:"type"`
	MemoryID string    `json:"memory_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	Count    int       `json:"count,omitempty"`
	At       time.Time `json:"at"`
}

// broadcaster decouples the API handlers from the concrete hub so tests can
// capture events.
type broadcaster interface {
	Broadcast(message interface{})
}

// publish sends an activity event if a hub is wired. Safe on a nil publisher.
func publish(b broadcaster, ev ActivityEvent) {
	if b == nil {
		return
	}
	ev.At = time.Now()
	b.Broadcast(ev)
}
