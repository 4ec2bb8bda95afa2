// Package events fans pipeline stage events out to in-process
// subscribers (admin digest notifier, status handlers).
package events

import (
	"sync"
	"time"
)

type Event struct {
	Type   string    `json:"type"` // e.g. "criteria_derived", "resumes_sourced"
	ChatID string    `json:"chat_id,omitempty"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

func New(typ, chatID, detail string) Event {
	return Event{Type: typ, ChatID: chatID, At: time.Now().UTC(), Detail: detail}
}

type Hub struct {
	mu      sync.Mutex
	clients map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event]struct{})}
}

func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}
