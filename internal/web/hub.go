package web

import (
	"sync"

	"github.com/karimzahran/sakan/internal/chat"
)

const subscriberBuffer = 16

// Hub fans confirmed messages out to live feed subscribers, keyed by chat ID.
// A slow subscriber that falls more than a buffer behind is dropped; the
// client recovers by refetching the message list.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]chan chat.Message
	nextID int64
}

// NewHub creates a new hub instance.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int64]chan chat.Message)}
}

// Subscribe registers a feed subscriber for a chat. The returned cancel
// function must be called when the subscriber disconnects.
func (h *Hub) Subscribe(chatID string) (<-chan chat.Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[chatID]; !ok {
		h.subs[chatID] = make(map[int64]chan chat.Message)
	}

	h.nextID++
	id := h.nextID
	ch := make(chan chat.Message, subscriberBuffer)
	h.subs[chatID][id] = ch

	cancel := func() { h.unsubscribe(chatID, id) }
	return ch, cancel
}

func (h *Hub) unsubscribe(chatID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.subs[chatID]; ok {
		if ch, ok := conns[id]; ok {
			delete(conns, id)
			close(ch)
		}
		if len(conns) == 0 {
			delete(h.subs, chatID)
		}
	}
}

// Publish delivers a message to all current subscribers of a chat.
// Subscribers whose buffers are full are dropped.
func (h *Hub) Publish(chatID string, m chat.Message) {
	h.mu.RLock()
	conns := h.subs[chatID]
	var stale []int64
	for id, ch := range conns {
		select {
		case ch <- m:
		default:
			stale = append(stale, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stale {
		h.unsubscribe(chatID, id)
	}
}

// SubscriberCount returns the number of live subscribers for a chat.
func (h *Hub) SubscriberCount(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[chatID])
}
