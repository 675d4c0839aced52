package ws

import "encoding/json"

// Inbound event names accepted from clients.
const (
	EvtCreateRoom      = "create-room"
	EvtJoinRoom        = "join-room"
	EvtSetSubject      = "set-subject"
	EvtStartGame       = "start-game"
	EvtRequestQuestion = "request-question"
	EvtSubmitAnswer    = "submit-answer"
	EvtPlayerContinue  = "player-continue"
)

// Envelope is the wire format in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload opens a new room; the creator becomes host.
type CreateRoomPayload struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
}

// JoinRoomPayload joins an existing room by code.
type JoinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SetSubjectPayload changes the room subject.
type SetSubjectPayload struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
}

// StartGamePayload starts the game (host only).
type StartGamePayload struct {
	Code string `json:"code"`
}

// RequestQuestionPayload retries question generation for a pending round.
type RequestQuestionPayload struct {
	Code    string   `json:"code"`
	History []string `json:"history,omitempty"`
}

// SubmitAnswerPayload submits the player's selected option index.
type SubmitAnswerPayload struct {
	Code      string `json:"code"`
	Selection int    `json:"selection"`
}

// PlayerContinuePayload advances past the reveal screen (host only).
type PlayerContinuePayload struct {
	Code   string `json:"code"`
	Action string `json:"action,omitempty"`
}
