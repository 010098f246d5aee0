package ws

import (
	"sync"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	ID() string
}

// Hub indexes live connections and their room placement. It implements
// the collab Sender: fan-out skips the originator, direct sends go by
// connection id.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Conn                // connID -> conn
	rooms  map[string]map[string]struct{} // roomID -> set of connIDs
	roomOf map[string]string              // connID -> roomID
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]Conn),
		rooms:  make(map[string]map[string]struct{}),
		roomOf: make(map[string]string),
	}
}

// Register adds a freshly upgraded connection, not yet in any room.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

// Place puts a registered connection into a room. A connection placed
// again is moved: it must never keep receiving its old room's fan-outs.
func (h *Hub) Place(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.roomOf[connID]; ok && prev != roomID {
		if rs, ok := h.rooms[prev]; ok {
			delete(rs, connID)
			if len(rs) == 0 {
				delete(h.rooms, prev)
			}
		}
	}

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[string]struct{})
		h.rooms[roomID] = rs
	}
	rs[connID] = struct{}{}
	h.roomOf[connID] = roomID
}

// Unregister drops the connection and its room placement.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if roomID, ok := h.roomOf[connID]; ok {
		if rs, ok := h.rooms[roomID]; ok {
			delete(rs, connID)
			if len(rs) == 0 {
				delete(h.rooms, roomID)
			}
		}
		delete(h.roomOf, connID)
	}
	delete(h.conns, connID)
}

func (h *Hub) ToRoom(roomID, exceptConnID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rs, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for connID := range rs {
		if connID == exceptConnID {
			continue
		}
		if c, ok := h.conns[connID]; ok {
			_ = c.Send(Message{Type: event, Payload: payload}) // best-effort
		}
	}
}

func (h *Hub) ToConn(connID, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.conns[connID]; ok {
		_ = c.Send(Message{Type: event, Payload: payload})
	}
}
