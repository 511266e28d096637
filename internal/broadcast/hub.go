// Package broadcast owns the process-wide set of live observer connections.
// The hub is created at server start and torn down at shutdown; delivery is
// best-effort and never blocks the request that triggered the event.
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/pkg/logger"
)

type Hub struct {
	mu    sync.RWMutex
	conns map[*Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*Conn]bool)}
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c] = true
	h.mu.Unlock()
	logger.Debug("observer connected", "observers", h.Count())
}

// Unregister removes a connection; unregistering twice is fine.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.Close()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast fans an event out to every live observer. An observer whose send
// buffer is full or whose socket is gone gets dropped, not retried; it will
// self-heal through its reconnect cycle and periodic refresh.
func (h *Hub) Broadcast(evt domain.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		logger.Error("failed to marshal broadcast event", "error", err, "type", evt.Type)
		return
	}

	var dead []*Conn
	h.mu.RLock()
	for c := range h.conns {
		if !c.trySend(payload) {
			dead = append(dead, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dead {
		logger.Warn("dropping unresponsive observer", "type", evt.Type)
		h.Unregister(c)
	}
}

// Shutdown closes every observer connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*Conn]bool)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
