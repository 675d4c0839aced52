package service

import "quizstorm/internal/model"

// Outbound event names. These are the wire vocabulary shared with clients.
const (
	EvtRoomCreated     = "room-created"
	EvtPlayerJoined    = "player-joined"
	EvtPlayerLeft      = "player-left"
	EvtSubjectChanged  = "subject-changed"
	EvtGameStarted     = "game-started"
	EvtNewQuestion     = "new-question"
	EvtAnswerSubmitted = "answer-submitted"
	EvtRevealAnswers   = "reveal-answers"
	EvtPlayerContinue  = "player-continue"
	EvtSyncGameState   = "sync-game-state"
	EvtError           = "error"
)

// Continue actions carried by the player-continue relay.
const (
	ActionNextRound = "next-round"
	ActionCompleted = "completed"
	ActionGameOver  = "game-over"
)

// RosterEntry is one player's public line in roster and score payloads.
type RosterEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Host  bool   `json:"host"`
}

// RoomCreatedPayload acknowledges room creation to the creator.
type RoomCreatedPayload struct {
	Code string     `json:"code"`
	Name string     `json:"name"`
	Mode model.Mode `json:"mode"`
}

// PlayerJoinedPayload announces a new member together with the full roster.
type PlayerJoinedPayload struct {
	Name    string        `json:"name"`
	Players []RosterEntry `json:"players"`
}

// PlayerLeftPayload carries the roster after a departure.
type PlayerLeftPayload struct {
	Players []RosterEntry `json:"players"`
}

// SubjectChangedPayload announces a subject change and who made it.
type SubjectChangedPayload struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
}

// GameStartedPayload announces the transition out of the lobby.
type GameStartedPayload struct {
	Subject string     `json:"subject"`
	Mode    model.Mode `json:"mode"`
	Starter string     `json:"starter"`
}

// NewQuestionPayload carries the raw generator output for a new round.
// Clients run the quiz parser themselves; the resolved correct index is
// never sent before the reveal.
type NewQuestionPayload struct {
	Question string `json:"question"`
	Level    int    `json:"level"`
}

// AnswerProgressPayload is the compete-mode progress notice: how many
// answers are in, never whether they were correct.
type AnswerProgressPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Total int    `json:"total"`
}

// RevealPayload discloses the round result to the whole room.
type RevealPayload struct {
	CorrectIndex int                  `json:"correctIndex"`
	Answers      []model.AnswerRecord `json:"answers"`
	Scores       []RosterEntry        `json:"scores"`
}

// ContinuePayload relays the resolved advance decision after a reveal.
type ContinuePayload struct {
	Action string `json:"action"`
	Level  int    `json:"level"`
}

// SyncStatePayload lets a client joining mid-round reconstruct the round,
// including an equivalent countdown. The correct answer is withheld.
type SyncStatePayload struct {
	Question          string     `json:"question"`
	Level             int        `json:"level"`
	Mode              model.Mode `json:"mode"`
	Subject           string     `json:"subject"`
	QuestionStartedAt int64      `json:"questionStartedAt"` // unix milliseconds
	RoundDurationMS   int64      `json:"roundDurationMs"`
}

// ErrorPayload is a human-readable failure delivered to one connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
