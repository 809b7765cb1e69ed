// Package sse delivers pipeline progress to browsers over Server-Sent
// Events. A Hub fans StageEvents out to connected clients; each client is
// keyed by session so a broadcast can target a single session or, with a
// glob pattern, many.
package sse

import (
	"path/filepath"
	"sync"

	"github.com/freemocap/skellysubs/logger"
)

// clientBuffer is the per-client send queue depth. When a client falls this
// far behind, further events to it are dropped rather than blocking the hub.
const clientBuffer = 256

// Client is a single SSE subscriber.
type Client struct {
	// ID identifies the subscriber for targeted broadcasts. The handler
	// uses "<sessionID>:<connectionID>" so one session may hold several
	// tabs at once.
	ID   string
	send chan []byte
	once sync.Once
}

// NewClient creates a client with a buffered send queue.
func NewClient(id string) *Client {
	return &Client{
		ID:   id,
		send: make(chan []byte, clientBuffer),
	}
}

// Send queues data for delivery. It never blocks; if the client's queue is
// full the event is dropped and Send reports false.
func (c *Client) Send(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Receive returns the channel the handler drains to write events out.
func (c *Client) Receive() <-chan []byte {
	return c.send
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

type message struct {
	pattern string
	data    []byte
}

// Broadcaster is the publishing half of a Hub, for code that emits events
// but never manages connections.
type Broadcaster interface {
	// Broadcast sends data to every client whose ID matches the glob
	// pattern (filepath.Match syntax). "*" reaches everyone.
	Broadcast(pattern string, data []byte)
}

// Hub owns the client set and serializes all registration and delivery
// through its run loop.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	log        *logger.Logger
}

// NewHub creates a Hub. Call Run before registering clients.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, clientBuffer),
		done:       make(chan struct{}),
		log:        log.WithComponent("sse"),
	}
}

// Run processes registrations and broadcasts until Stop is called. It is
// meant to be started once, in its own goroutine.
func (h *Hub) Run() {
	clients := make(map[*Client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.log.Debug("Client connected", map[string]interface{}{
				"client_id": c.ID,
				"clients":   len(clients),
			})
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				c.close()
				h.log.Debug("Client disconnected", map[string]interface{}{
					"client_id": c.ID,
					"clients":   len(clients),
				})
			}
		case m := <-h.broadcast:
			for c := range clients {
				matched, err := filepath.Match(m.pattern, c.ID)
				if err != nil || !matched {
					continue
				}
				if !c.Send(m.data) {
					h.log.Warn("Client queue full, dropping event", map[string]interface{}{
						"client_id": c.ID,
					})
				}
			}
		case <-h.done:
			for c := range clients {
				c.close()
			}
			return
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast implements Broadcaster.
func (h *Hub) Broadcast(pattern string, data []byte) {
	select {
	case h.broadcast <- message{pattern: pattern, data: data}:
	case <-h.done:
	}
}

// Stop shuts the run loop down and closes every connected client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
