package ws

import (
	"encoding/json"
	"sync"
)

// Client is one dashboard connection subscribed to a manager channel.
type Client struct {
	Channel string // manager ID the subscriber watches
	Send    chan []byte
	hub     *Hub
	mu      sync.Mutex
	closed  bool
}

// Close is idempotent; it drops the client from its channel and closes Send.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()
	if c.hub != nil {
		c.hub.unsubscribe(c)
	}
}

// trySend queues data without blocking. False means the client is closed or
// its buffer is full; either way it is no longer a viable subscriber.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Hub fans presence events out to manager dashboards. Channels are keyed by
// manager ID; delivery is best-effort with no queuing or retry. One hub per
// process, owned by the router and shut down with the server.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Subscribe(channel string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.channels[c.Channel]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.channels, c.Channel)
		}
	}
}

// Publish delivers payload to every subscriber of the channel. A subscriber
// that cannot accept the message is pruned in the same pass so one dead
// connection never stalls the rest. No subscribers means no-op.
func (h *Hub) Publish(channel string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	m := h.channels[channel]
	if len(m) == 0 {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		if !c.trySend(data) {
			c.Close()
		}
	}
}

// Subscribers reports the live subscriber count for a channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Shutdown closes every connected client.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	var all []*Client
	for _, m := range h.channels {
		for c := range m {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.Close()
	}
}
