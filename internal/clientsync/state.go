package clientsync

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"quizstorm/internal/model"
	"quizstorm/internal/quiz"
	"quizstorm/internal/service"
	"quizstorm/internal/transport/ws"
)

// Phase is the client-side rendering phase.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhasePending   Phase = "pending" // waiting for the next question
	PhaseQuestion  Phase = "question"
	PhaseReveal    Phase = "reveal"
	PhaseGameOver  Phase = "game_over"
	PhaseCompleted Phase = "completed"
)

// GameState is the local mirror a client renders from. It is rebuilt purely
// from gateway events; nothing here is authoritative.
type GameState struct {
	Code     string
	Mode     model.Mode
	Subject  string
	Players  []service.RosterEntry
	Level    int
	Raw      string
	Question *quiz.Parsed // nil when the raw text did not parse
	Phase    Phase

	AnswersIn    int
	AnswersTotal int
	LastReveal   *service.RevealPayload
	LastError    string
}

// Synchronizer applies gateway events to a local game state and drives the
// advisory countdown. The countdown expiring changes nothing: reveals happen
// only when the server broadcast arrives, because only the server's timer or
// a complete set of submissions is authoritative.
type Synchronizer struct {
	clock         clockwork.Clock
	roundDuration time.Duration
	countdown     *Countdown

	mu    sync.Mutex
	state GameState
}

// NewSynchronizer creates a synchronizer. roundDuration is the round length
// the server is configured with, used for fresh questions; snapshots carry
// their own duration.
func NewSynchronizer(clock clockwork.Clock, roundDuration time.Duration, onCountdownExpire func()) *Synchronizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if roundDuration <= 0 {
		roundDuration = 30 * time.Second
	}
	return &Synchronizer{
		clock:         clock,
		roundDuration: roundDuration,
		countdown:     NewCountdown(clock, onCountdownExpire),
		state:         GameState{Phase: PhaseLobby},
	}
}

// State returns a copy of the current mirror.
func (s *Synchronizer) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Countdown exposes the advisory countdown for rendering.
func (s *Synchronizer) Countdown() *Countdown {
	return s.countdown
}

// Apply folds one gateway event into the mirror.
func (s *Synchronizer) Apply(env ws.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Type {
	case service.EvtRoomCreated:
		var p service.RoomCreatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Code = p.Code
		s.state.Mode = p.Mode
		s.state.Phase = PhaseLobby

	case service.EvtPlayerJoined:
		var p service.PlayerJoinedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Players = p.Players

	case service.EvtPlayerLeft:
		var p service.PlayerLeftPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Players = p.Players

	case service.EvtSubjectChanged:
		var p service.SubjectChangedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Subject = p.Subject

	case service.EvtGameStarted:
		var p service.GameStartedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Subject = p.Subject
		s.state.Mode = p.Mode
		s.state.Phase = PhasePending

	case service.EvtNewQuestion:
		var p service.NewQuestionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.installQuestion(p.Question, p.Level)
		s.countdown.Start(s.roundDuration)

	case service.EvtAnswerSubmitted:
		var p service.AnswerProgressPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.AnswersIn = p.Count
		s.state.AnswersTotal = p.Total

	case service.EvtRevealAnswers:
		var p service.RevealPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Phase = PhaseReveal
		s.state.LastReveal = &p
		s.state.Players = p.Scores
		s.countdown.Stop()

	case service.EvtPlayerContinue:
		var p service.ContinuePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.countdown.Stop()
		s.state.Level = p.Level
		switch p.Action {
		case service.ActionNextRound:
			s.state.Phase = PhasePending
		case service.ActionCompleted:
			s.state.Phase = PhaseCompleted
		case service.ActionGameOver:
			s.state.Phase = PhaseGameOver
		}

	case service.EvtSyncGameState:
		var p service.SyncStatePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.Subject = p.Subject
		s.state.Mode = p.Mode
		s.installQuestion(p.Question, p.Level)
		// Reconstruct the countdown from the server's question timestamp; a
		// round that already ran out gets no countdown at all.
		s.countdown.Start(SnapshotRemaining(p.QuestionStartedAt, p.RoundDurationMS, s.clock.Now()))

	case service.EvtError:
		var p service.ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		s.state.LastError = p.Message

	default:
		return fmt.Errorf("unknown event type %q", env.Type)
	}
	return nil
}

func (s *Synchronizer) installQuestion(raw string, level int) {
	s.state.Raw = raw
	s.state.Level = level
	s.state.Phase = PhaseQuestion
	s.state.AnswersIn = 0
	s.state.AnswersTotal = len(s.state.Players)
	s.state.LastReveal = nil
	if parsed, err := quiz.Parse(raw); err == nil {
		s.state.Question = &parsed
	} else {
		s.state.Question = nil
	}
}
