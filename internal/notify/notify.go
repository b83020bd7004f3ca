// Package notify is the user-facing notification port. The orchestrator
// publishes transient notices here instead of mutating any global listener
// state; consumers subscribe explicitly.
package notify

import "sync"

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a single transient user-visible notice.
type Notification struct {
	Level   Level
	Message string
}

// Notifier is the injected port the orchestrator publishes through.
type Notifier interface {
	Notify(n Notification)
}

const defaultBufferSize = 64

// Hub is an in-memory Notifier with channel fan-out. Publish is non-blocking:
// a subscriber that stops draining loses notifications rather than stalling a
// send.
type Hub struct {
	mu   sync.RWMutex
	subs []chan Notification
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a subscriber and returns its channel. The caller owns
// the consumption loop.
func (h *Hub) Subscribe() <-chan Notification {
	ch := make(chan Notification, defaultBufferSize)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

// Notify delivers n to all subscribers, dropping it for any whose buffer is
// full.
func (h *Hub) Notify(n Notification) {
	h.mu.RLock()
	subs := h.subs
	h.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- n:
		default:
		}
	}
}
