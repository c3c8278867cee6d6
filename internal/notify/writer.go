// Package notify bridges sweep events between processes using filesystem
// events. The memory-sweeper binary runs maintenance in its own process and
// has no access to the API server's WebSocket hub; it drops event files into
// a shared directory instead, and the server picks them up and broadcasts
// them on the activity feed.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sweep event types.
const (
	EventExpirySweep        = "expiry_sweep"
	EventDecaySweep         = "decay_sweep"
	EventConsolidationSweep = "consolidation_sweep"
)

// Event is the payload written to an event file.
type Event struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Time  int64  `json:"time"`
}

// EventWriter writes sweep event files to a shared directory.
type EventWriter struct {
	dir string
}

// NewEventWriter creates a writer that emits events to {dataPath}/events/.
func NewEventWriter(dataPath string) *EventWriter {
	return &EventWriter{dir: filepath.Join(dataPath, "events")}
}

// Notify writes an event file recording that a sweep touched count records.
// Safe to call concurrently. Errors are returned but not fatal.
func (w *EventWriter) Notify(eventType string, count int) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	evt := Event{
		Type:  eventType,
		Count: count,
		Time:  time.Now().UnixNano(),
	}
	data, _ := json.Marshal(evt)
	filename := fmt.Sprintf("%d-%s.event", evt.Time, eventType)
	path := filepath.Join(w.dir, filename)
	return os.WriteFile(path, data, 0o600)
}
