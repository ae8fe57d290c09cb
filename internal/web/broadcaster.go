package web

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cjeanneret/skyscan/internal/logic/geometry"
)

// subscriberBuffer is the per-client queue depth. A client that falls
// further behind misses messages.
const subscriberBuffer = 64

// ShotStatus is the progress payload attached to shot events.
type ShotStatus struct {
	N        int                    `json:"n"`
	Total    int                    `json:"total"`
	Index    int                    `json:"index"`
	Position geometry.MotorPosition `json:"position"`
}

// StatusEvent is a single SSE message.
type StatusEvent struct {
	Time  string      `json:"t"`
	Level string      `json:"l,omitempty"`
	RunID string      `json:"run_id,omitempty"`
	Msg   string      `json:"msg"`
	Shot  *ShotStatus `json:"shot,omitempty"`
}

// StatusBroadcaster fans status events out to every connected SSE client.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

// NewStatusBroadcaster creates a new broadcaster.
func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel that receives encoded events and a cleanup function.
// The caller must call the returned cleanup when done (e.g. on client disconnect).
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Subscribers returns the number of connected clients.
func (b *StatusBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish stamps evt with the current time if unset, encodes it as JSON and
// offers it to every client without blocking.
func (b *StatusBroadcaster) Publish(evt StatusEvent) {
	if evt.Time == "" {
		evt.Time = time.Now().Format(time.RFC3339)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Broadcast publishes a plain message at the given level.
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	b.Publish(StatusEvent{Level: level, Msg: msg})
}

// BroadcastMsg is a convenience for level "info".
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast("info", msg)
}

// BroadcastShot publishes a progress event for one completed shot of run runID.
func (b *StatusBroadcaster) BroadcastShot(runID string, s ShotStatus) {
	b.Publish(StatusEvent{
		Level: "shot",
		RunID: runID,
		Msg:   fmt.Sprintf("shot %d/%d at %s", s.N, s.Total, s.Position),
		Shot:  &s,
	})
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content to SSE clients.
// Used with debug.SetOutput so scan logs reach the browser.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if msg := strings.TrimSpace(line); msg != "" {
			w.b.BroadcastMsg(msg)
		}
	}
	return len(p), nil
}
