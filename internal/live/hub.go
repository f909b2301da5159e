package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub tracks open live-search connections.
type Hub struct {
	mu      sync.Mutex
	clients map[*conn]struct{}
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

type conn struct {
	ws *websocket.Conn
	// gorilla allows one concurrent writer per connection
	writeMu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	_, err := c.writeJSONIf(nil, v)
	return err
}

// writeJSONIf writes v only if current, checked under the write lock,
// still holds. It reports whether v was written.
func (c *conn) writeJSONIf(current func() bool, v any) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if current != nil && !current() {
		return false, nil
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return true, c.ws.WriteMessage(websocket.TextMessage, b)
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*conn]struct{})}
}

func (h *Hub) add(c *conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.ws.Close()
}

// BroadcastJSON sends v to every connection, dropping the ones that fail.
func (h *Hub) BroadcastJSON(v any) {
	h.mu.Lock()
	clients := make([]*conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(v); err != nil {
			h.remove(c)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.clients)}
}

// NotifyReload tells live clients the directory changed so they re-run
// their current query.
func (h *Hub) NotifyReload(inserted int) {
	h.BroadcastJSON(Message{Type: TypeReload, Total: inserted})
}
