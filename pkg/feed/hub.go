// Package feed publishes island snapshots to websocket subscribers.
package feed

import (
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/psilLang/island/pkg/island"
)

// Conn is one subscriber.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Hub fans snapshots out to every subscriber. It implements island.Observer.
// A subscriber whose Send fails is closed and dropped.
type Hub struct {
	Log *log.Logger

	mu        sync.Mutex
	clients   map[uuid.UUID]Conn
	lastFrame []byte
	lastStats []byte
}

func NewHub() *Hub {
	return &Hub{
		Log:     log.New(io.Discard, "", 0),
		clients: make(map[uuid.UUID]Conn),
	}
}

// Add registers c and sends it the latest frame and stats, if any.
func (h *Hub) Add(c Conn) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[id] = c
	for _, b := range [][]byte{h.lastFrame, h.lastStats} {
		if b == nil {
			continue
		}
		if err := c.Send(b); err != nil {
			h.drop(id, err)
			break
		}
	}
	return id
}

// Remove closes and forgets a subscriber. Unknown ids are ignored.
func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		_ = c.Close()
		delete(h.clients, id)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		_ = c.Close()
		delete(h.clients, id)
	}
}

func (h *Hub) ObserveFrame(f island.Frame) {
	b, err := Encode(MsgFrame, FrameFrom(f))
	if err != nil {
		h.Log.Printf("[Feed] encode frame: %v", err)
		return
	}
	h.broadcast(b, &h.lastFrame)
}

func (h *Hub) ObserveStats(s island.Stats) {
	b, err := Encode(MsgStats, StatsFrom(s))
	if err != nil {
		h.Log.Printf("[Feed] encode stats: %v", err)
		return
	}
	h.broadcast(b, &h.lastStats)
}

func (h *Hub) broadcast(b []byte, last *[]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*last = b

	failed := make(map[uuid.UUID]error)
	for id, c := range h.clients {
		if err := c.Send(b); err != nil {
			failed[id] = err
		}
	}
	for id, err := range failed {
		h.drop(id, err)
	}
}

// drop runs with h.mu held.
func (h *Hub) drop(id uuid.UUID, err error) {
	if c, ok := h.clients[id]; ok {
		_ = c.Close()
		delete(h.clients, id)
		h.Log.Printf("[Feed] dropped subscriber %s: %v (%d left)", id.String()[:8], err, len(h.clients))
	}
}
