package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Connection represents one client connection's routing state. A connection
// starts unbound and is attached to a room by the gateway when the client
// creates or joins one.
type Connection struct {
	ID       string // player identity, set at bind time
	Name     string
	RoomCode string
	Send     chan []byte

	registered bool // touched only from the connection's read goroutine
}

// NewConnection allocates an unbound connection with a buffered send queue.
func NewConnection() *Connection {
	return &Connection{
		Send: make(chan []byte, 256),
	}
}

type broadcastMessage struct {
	roomCode string
	except   string // skip this member, if set
	to       string // deliver only to this member, if set
	event    string
	payload  interface{}
}

// Hub tracks which connections belong to which room and fans session events
// out to them. Membership changes are synchronous so a freshly bound
// connection never misses the broadcasts that follow its own join; event
// delivery runs through a single loop so every member observes one room's
// events in the order the session emitted them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Connection

	broadcast chan *broadcastMessage
}

// NewHub creates a hub and starts its delivery loop.
func NewHub() *Hub {
	h := &Hub{
		rooms:     make(map[string]map[string]*Connection),
		broadcast: make(chan *broadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for msg := range h.broadcast {
		data, err := marshalEnvelope(msg.event, msg.payload)
		if err != nil {
			log.Error().Err(err).Str("event", msg.event).Msg("failed to encode event")
			continue
		}

		h.mu.RLock()
		members := h.rooms[msg.roomCode]
		for id, conn := range members {
			if msg.to != "" && id != msg.to {
				continue
			}
			if msg.except != "" && id == msg.except {
				continue
			}
			select {
			case conn.Send <- data:
			default:
				// Slow consumer; drop rather than stall the room
				log.Warn().Str("room", msg.roomCode).Str("player", id).Msg("send buffer full, dropping event")
			}
		}
		h.mu.RUnlock()
	}
}

// Register attaches a bound connection to its room.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[conn.RoomCode] == nil {
		h.rooms[conn.RoomCode] = make(map[string]*Connection)
	}
	h.rooms[conn.RoomCode][conn.ID] = conn
}

// Unregister removes a connection and closes its send queue.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[conn.RoomCode]; ok {
		if existing, ok := members[conn.ID]; ok && existing == conn {
			delete(members, conn.ID)
			close(conn.Send)
			if len(members) == 0 {
				delete(h.rooms, conn.RoomCode)
			}
		}
	}
}

// Detach removes a connection from its room without closing the send queue,
// for a bind that has to be rolled back while the socket stays open.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[conn.RoomCode]; ok {
		if existing, ok := members[conn.ID]; ok && existing == conn {
			delete(members, conn.ID)
			if len(members) == 0 {
				delete(h.rooms, conn.RoomCode)
			}
		}
	}
}

// ToRoom implements service.Broadcaster.
func (h *Hub) ToRoom(roomCode string, event string, payload interface{}) {
	h.broadcast <- &broadcastMessage{roomCode: roomCode, event: event, payload: payload}
}

// ToRoomExcept implements service.Broadcaster.
func (h *Hub) ToRoomExcept(roomCode, exceptID string, event string, payload interface{}) {
	h.broadcast <- &broadcastMessage{roomCode: roomCode, except: exceptID, event: event, payload: payload}
}

// ToPlayer implements service.Broadcaster.
func (h *Hub) ToPlayer(roomCode, playerID string, event string, payload interface{}) {
	h.broadcast <- &broadcastMessage{roomCode: roomCode, to: playerID, event: event, payload: payload}
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event, Payload: body})
}
