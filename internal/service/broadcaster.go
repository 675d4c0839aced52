package service

// Broadcaster pushes session events to connected clients. Implemented by the
// websocket hub; defined here to avoid an import cycle with the transport
// layer.
type Broadcaster interface {
	// ToRoom delivers an event to every member of a room.
	ToRoom(roomCode string, event string, payload interface{})
	// ToRoomExcept delivers an event to every member except one, used when
	// the acting player's client already reflects the change.
	ToRoomExcept(roomCode, exceptID string, event string, payload interface{})
	// ToPlayer delivers an event to a single member.
	ToPlayer(roomCode, playerID string, event string, payload interface{})
}
