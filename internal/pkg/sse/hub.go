package sse

import (
	"sync"
)

// Event represents a presence event to be streamed to admin dashboards.
type Event struct {
	TenantID string
	Event    string
	Data     interface{}
}

// Hub manages SSE subscribers and event broadcasting. Subscriptions are
// keyed by tenant so one organization's dashboards never see another's
// presence events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber for a tenant and returns the event
// channel and cleanup function
func (h *Hub) Subscribe(tenantID string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[tenantID] == nil {
		h.subscribers[tenantID] = make(map[chan Event]struct{})
	}
	h.subscribers[tenantID][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subscribers[tenantID], ch)
		close(ch)
		if len(h.subscribers[tenantID]) == 0 {
			delete(h.subscribers, tenantID)
		}
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a specific tenant
func (h *Hub) Publish(tenantID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[tenantID]; ok {
		for ch := range subs {
			select {
			case ch <- event:
			default:
				// Skip if channel is full (non-blocking to prevent deadlock)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for a tenant
func (h *Hub) SubscriberCount(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[tenantID]; ok {
		return len(subs)
	}
	return 0
}
