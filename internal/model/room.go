package model

import "time"

// Mode defines how a room scores and terminates
type Mode string

const (
	// ModeCollab gives the whole room one shared attempt per question;
	// any wrong answer ends the session for everyone.
	ModeCollab Mode = "collab"
	// ModeCompete lets every player answer independently and accumulate score;
	// the session always runs the full level count.
	ModeCompete Mode = "compete"
)

// Valid reports whether the mode is one of the supported game modes.
func (m Mode) Valid() bool {
	return m == ModeCollab || m == ModeCompete
}

// SessionState is the lifecycle phase of a room session
type SessionState string

const (
	StateWaiting         SessionState = "waiting"
	StateSubjectSelected SessionState = "subject_selected"
	StateRoundPending    SessionState = "round_pending" // question requested, not yet delivered
	StateRoundActive     SessionState = "round_active"  // question live, accepting answers
	StateRevealing       SessionState = "revealing"     // answers disclosed, waiting for continue
	StateTerminal        SessionState = "terminal"
)

// MaxLevels is the number of questions in a full session. Level is the
// zero-based question ordinal, so a session ends after level MaxLevels-1.
const MaxLevels = 12

// Outcome describes how a finished session ended
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Player is a participant in a room. The ID is a per-connection identity;
// a player who disconnects and rejoins comes back under a fresh ID.
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	Host     bool      `json:"host"`
	JoinedAt time.Time `json:"joinedAt"`
}

// AnswerRecord captures one player's submitted answer for the current round.
// Records are immutable once created and cleared when the next round begins.
type AnswerRecord struct {
	PlayerID      string `json:"-"`
	Name          string `json:"name"`
	SelectedIndex int    `json:"selectedIndex"`
	Correct       bool   `json:"correct"`
	Order         int    `json:"order"`
}

// RoomInfo is the public view of a room used by the REST surface.
type RoomInfo struct {
	Code        string       `json:"code"`
	Mode        Mode         `json:"mode"`
	Subject     string       `json:"subject"`
	State       SessionState `json:"state"`
	Level       int          `json:"level"`
	PlayerCount int          `json:"playerCount"`
}
