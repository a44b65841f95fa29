// Package realtime fans row-change notifications out to in-process subscribers.
package realtime

import (
	"sync"
)

// Tables that publish row changes.
const (
	TableLead     = "lead"
	TableAttendee = "attendee"
	TableEvent    = "event"
)

// Ops mirror the Postgres trigger TG_OP values.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change is one row-level notification.
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// Publisher accepts row changes. Orchestrators depend on this, not on Hub.
type Publisher interface {
	Publish(c Change)
}

// Hub is an in-process pub/sub of row changes.
// Delivery is best effort: a subscriber whose buffer is full misses the
// change rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]subscription
	nextID uint64
	closed bool
}

type subscription struct {
	table string // empty subscribes to every table
	ch    chan Change
}

// SubscriberBuffer is the per-subscriber channel capacity.
const SubscriberBuffer = 16

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]subscription)}
}

// Subscribe registers for changes to table ("" for all tables).
// POST: The returned cancel func unregisters and closes the channel; it is safe to call twice
func (h *Hub) Subscribe(table string) (<-chan Change, func()) {
	ch := make(chan Change, SubscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = subscription{table: table, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers c to every matching subscriber without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.table != "" && sub.table != c.Table {
			continue
		}
		select {
		case sub.ch <- c:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel; later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Discard is a Publisher that drops every change.
type Discard struct{}

func (Discard) Publish(Change) {}
