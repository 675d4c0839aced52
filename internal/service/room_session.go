package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizstorm/internal/model"
)

// RoomSession is the authoritative state machine for one room. All state is
// owned by the session and mutated only under its lock, so submissions, the
// reveal timer, continues and leaves are serialized per room; rooms never
// block each other. The reveal timer and the last submission race to close a
// round, and exactly one of them wins: the reveal path bumps a round
// generation counter, turning the losing trigger into a no-op.
//
// The reveal timer is armed when the question is generated, not when clients
// report having rendered it. A client that renders late observes a shorter
// advisory countdown; the server clock is authoritative either way.
type RoomSession struct {
	code string
	mode model.Mode
	deps Deps

	mu             sync.Mutex
	state          model.SessionState
	subject        string
	players        []*model.Player
	level          int
	question       *model.Question
	questionSentAt time.Time
	answers        map[string]*model.AnswerRecord
	answerOrder    []*model.AnswerRecord
	asked          []string
	failed         bool
	generating     bool

	// roundGen invalidates scheduled timers; both timers capture the value
	// current when they were armed and no-op if it has moved on.
	roundGen    int
	revealTimer clockwork.Timer
	graceTimer  clockwork.Timer
}

func newRoomSession(code string, mode model.Mode, deps Deps) *RoomSession {
	return &RoomSession{
		code:    code,
		mode:    mode,
		deps:    deps,
		state:   model.StateWaiting,
		answers: make(map[string]*model.AnswerRecord),
	}
}

// Code returns the room code.
func (s *RoomSession) Code() string { return s.code }

// Mode returns the room's game mode.
func (s *RoomSession) Mode() model.Mode { return s.mode }

// State returns the current lifecycle state.
func (s *RoomSession) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns the public view of the room.
func (s *RoomSession) Info() model.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.RoomInfo{
		Code:        s.code,
		Mode:        s.mode,
		Subject:     s.subject,
		State:       s.state,
		Level:       s.level,
		PlayerCount: len(s.players),
	}
}

// Join adds a player to the room. The first joiner becomes host. A client
// joining while a round is active additionally receives a state snapshot so
// it can reconstruct the question and an equivalent countdown; the correct
// answer is never part of it.
func (s *RoomSession) Join(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.StateTerminal {
		return ErrRoomNotFound
	}

	player := &model.Player{
		ID:       id,
		Name:     name,
		Host:     len(s.players) == 0,
		JoinedAt: s.deps.Clock.Now(),
	}
	s.players = append(s.players, player)
	log.Info().Str("room", s.code).Str("player", name).Bool("host", player.Host).Msg("player joined")

	s.deps.Broadcaster.ToRoom(s.code, EvtPlayerJoined, PlayerJoinedPayload{
		Name:    name,
		Players: s.rosterLocked(),
	})

	if s.state == model.StateRoundActive && s.question != nil {
		s.deps.Broadcaster.ToPlayer(s.code, id, EvtSyncGameState, SyncStatePayload{
			Question:          s.question.Raw,
			Level:             s.level,
			Mode:              s.mode,
			Subject:           s.subject,
			QuestionStartedAt: s.questionSentAt.UnixMilli(),
			RoundDurationMS:   s.deps.Round.Milliseconds(),
		})
	}
	return nil
}

// SetSubject updates the room subject. Any member may change it before the
// game is over; last write wins. Other members are notified.
func (s *RoomSession) SetSubject(id, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.StateTerminal {
		return ErrRoomNotFound
	}
	player := s.playerLocked(id)
	if player == nil {
		return ErrRoomNotFound
	}

	s.subject = subject
	if s.state == model.StateWaiting {
		s.state = model.StateSubjectSelected
	}
	s.deps.Broadcaster.ToRoomExcept(s.code, id, EvtSubjectChanged, SubjectChangedPayload{
		Subject: subject,
		Name:    player.Name,
	})
	return nil
}

// Start begins the game: level 0's question is requested immediately. Host
// only; requires a subject.
func (s *RoomSession) Start(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.playerLocked(id)
	if player == nil {
		return ErrRoomNotFound
	}
	if !player.Host {
		return ErrNotHost
	}
	if s.state != model.StateWaiting && s.state != model.StateSubjectSelected {
		return nil
	}
	if s.subject == "" {
		return ErrSubjectMissing
	}

	s.state = model.StateRoundPending
	s.level = 0
	log.Info().Str("room", s.code).Str("subject", s.subject).Msg("game started")
	s.deps.Broadcaster.ToRoom(s.code, EvtGameStarted, GameStartedPayload{
		Subject: s.subject,
		Mode:    s.mode,
		Starter: player.Name,
	})
	s.requestQuestionLocked(id, nil)
	return nil
}

// RequestQuestion asks the question source for the pending round's question.
// This is the client retry path after a generation failure; requests outside
// RoundPending, or while a request is already in flight, are ignored.
func (s *RoomSession) RequestQuestion(id string, history []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateRoundPending {
		log.Debug().Str("room", s.code).Str("state", string(s.state)).Msg("ignoring question request outside pending round")
		return
	}
	s.requestQuestionLocked(id, history)
}

// requestQuestionLocked launches question generation without holding the
// room lock across the provider call, which may take arbitrarily long. On
// failure the round stays pending and only the requester is notified, so it
// can retry without corrupting room state.
func (s *RoomSession) requestQuestionLocked(requesterID string, extraHistory []string) {
	if s.generating {
		return
	}
	s.generating = true

	subject := s.subject
	history := make([]string, 0, len(s.asked)+len(extraHistory))
	history = append(history, s.asked...)
	history = append(history, extraHistory...)

	go func() {
		question, err := s.deps.Source.Generate(context.Background(), subject, history)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.generating = false

		if err != nil {
			log.Error().Err(err).Str("room", s.code).Int("level", s.level).Msg("question generation failed")
			s.deps.Broadcaster.ToPlayer(s.code, requesterID, EvtError, ErrorPayload{Message: err.Error()})
			return
		}
		if s.state != model.StateRoundPending || len(s.players) == 0 {
			return
		}
		s.installQuestionLocked(question)
	}()
}

// installQuestionLocked makes the generated question the current round:
// answers are reset, the reveal timer is armed and the raw question text is
// broadcast.
func (s *RoomSession) installQuestionLocked(question *model.Question) {
	s.question = question
	s.questionSentAt = s.deps.Clock.Now()
	s.answers = make(map[string]*model.AnswerRecord)
	s.answerOrder = nil
	s.asked = append(s.asked, question.Text)

	s.roundGen++
	gen := s.roundGen
	s.stopTimersLocked()
	s.revealTimer = s.deps.Clock.AfterFunc(s.deps.Round, func() {
		s.revealDue(gen)
	})

	s.state = model.StateRoundActive
	log.Debug().Str("room", s.code).Int("level", s.level).Msg("question live")
	s.deps.Broadcaster.ToRoom(s.code, EvtNewQuestion, NewQuestionPayload{
		Question: question.Raw,
		Level:    s.level,
	})
}

// SubmitAnswer records a player's answer for the active round. Repeated
// submissions from the same identity and submissions outside an active round
// are ignored, not errored: duplicate client events are expected.
//
// In collab mode the single shared attempt ends the round immediately. In
// compete mode a correct answer scores right away, and the round ends when
// every player has answered or the reveal timer fires, whichever is first.
func (s *RoomSession) SubmitAnswer(id string, selectedIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != model.StateRoundActive || s.question == nil {
		return
	}
	player := s.playerLocked(id)
	if player == nil {
		return
	}
	if _, dup := s.answers[id]; dup {
		return
	}
	if selectedIndex < 0 || selectedIndex >= len(s.question.Options) {
		return
	}

	record := &model.AnswerRecord{
		PlayerID:      id,
		Name:          player.Name,
		SelectedIndex: selectedIndex,
		Correct:       selectedIndex == s.question.CorrectIndex,
		Order:         len(s.answerOrder) + 1,
	}
	s.answers[id] = record
	s.answerOrder = append(s.answerOrder, record)

	if s.mode == model.ModeCompete && record.Correct {
		player.Score++
		s.mirrorScoreLocked(player)
	}

	if s.mode == model.ModeCollab {
		s.revealLocked()
		return
	}
	if len(s.answerOrder) >= len(s.players) {
		s.revealLocked()
		return
	}
	s.deps.Broadcaster.ToRoom(s.code, EvtAnswerSubmitted, AnswerProgressPayload{
		Name:  player.Name,
		Count: len(s.answerOrder),
		Total: len(s.players),
	})
}

// revealDue is the reveal timer callback. A stale generation or a room that
// has already revealed, moved on or been deleted makes this a no-op.
func (s *RoomSession) revealDue(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateRoundActive || gen != s.roundGen {
		return
	}
	log.Debug().Str("room", s.code).Int("level", s.level).Msg("round timed out")
	s.revealLocked()
}

// revealLocked closes the round and broadcasts the result exactly once.
// After a short grace window the answer records are cleared so the next
// round's duplicate suppression starts clean.
func (s *RoomSession) revealLocked() {
	s.roundGen++
	s.stopTimersLocked()
	s.state = model.StateRevealing

	if s.mode == model.ModeCollab {
		for _, record := range s.answerOrder {
			if !record.Correct {
				s.failed = true
				break
			}
		}
	}

	answers := make([]model.AnswerRecord, len(s.answerOrder))
	for i, record := range s.answerOrder {
		answers[i] = *record
	}
	s.deps.Broadcaster.ToRoom(s.code, EvtRevealAnswers, RevealPayload{
		CorrectIndex: s.question.CorrectIndex,
		Answers:      answers,
		Scores:       s.rosterLocked(),
	})

	gen := s.roundGen
	s.graceTimer = s.deps.Clock.AfterFunc(s.deps.Grace, func() {
		s.graceDue(gen)
	})
}

// graceDue clears the revealed round's answers once the grace window ends.
func (s *RoomSession) graceDue(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateRevealing || gen != s.roundGen {
		return
	}
	s.answers = make(map[string]*model.AnswerRecord)
	s.answerOrder = nil
}

// Continue advances past the reveal screen. Host only. A collab room that
// failed its round routes to game over; level MaxLevels-1 completing routes
// to the finished state; otherwise the next round's question is requested
// immediately.
func (s *RoomSession) Continue(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.playerLocked(id)
	if player == nil {
		return ErrRoomNotFound
	}
	if !player.Host {
		return ErrNotHost
	}
	if s.state != model.StateRevealing {
		return nil
	}

	if s.failed {
		s.terminalLocked(model.OutcomeFailed)
		s.deps.Broadcaster.ToRoom(s.code, EvtPlayerContinue, ContinuePayload{
			Action: ActionGameOver,
			Level:  s.level,
		})
		return nil
	}
	if s.level+1 >= model.MaxLevels {
		s.terminalLocked(model.OutcomeCompleted)
		s.deps.Broadcaster.ToRoom(s.code, EvtPlayerContinue, ContinuePayload{
			Action: ActionCompleted,
			Level:  s.level,
		})
		return nil
	}

	s.level++
	s.state = model.StateRoundPending
	s.deps.Broadcaster.ToRoom(s.code, EvtPlayerContinue, ContinuePayload{
		Action: ActionNextRound,
		Level:  s.level,
	})
	s.requestQuestionLocked(id, nil)
	return nil
}

// Leave removes a player and reports whether the room is now empty. An empty
// room cancels its timers and must be deleted by the caller. Answers already
// recorded this round stay in place. If the host leaves, the longest-present
// remaining player inherits the role.
func (s *RoomSession) Leave(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(s.players) == 0
	}

	wasHost := s.players[idx].Host
	log.Info().Str("room", s.code).Str("player", s.players[idx].Name).Msg("player left")
	s.players = append(s.players[:idx], s.players[idx+1:]...)

	if len(s.players) == 0 {
		s.stopTimersLocked()
		s.roundGen++
		s.state = model.StateTerminal
		s.clearLeaderboardLocked()
		return true
	}

	if wasHost {
		s.players[0].Host = true
	}
	s.deps.Broadcaster.ToRoom(s.code, EvtPlayerLeft, PlayerLeftPayload{
		Players: s.rosterLocked(),
	})
	return false
}

// terminalLocked finishes the session and archives a best-effort report.
func (s *RoomSession) terminalLocked(outcome model.Outcome) {
	s.state = model.StateTerminal
	s.roundGen++
	s.stopTimersLocked()
	log.Info().Str("room", s.code).Str("outcome", string(outcome)).Int("level", s.level).Msg("session finished")

	if s.deps.Reports == nil {
		return
	}
	report := &model.GameReport{
		Code:          s.code,
		Mode:          s.mode,
		Subject:       s.subject,
		Outcome:       outcome,
		LevelsCleared: s.level,
		FinishedAt:    s.deps.Clock.Now(),
	}
	if outcome == model.OutcomeCompleted {
		report.LevelsCleared = s.level + 1
	}
	for _, p := range s.players {
		report.FinalScores = append(report.FinalScores, model.PlayerScore{Name: p.Name, Score: p.Score})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.Reports.Create(ctx, report); err != nil {
			log.Warn().Err(err).Str("room", s.code).Msg("failed to archive game report")
		}
	}()
}

func (s *RoomSession) stopTimersLocked() {
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

func (s *RoomSession) playerLocked(id string) *model.Player {
	for _, p := range s.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *RoomSession) rosterLocked() []RosterEntry {
	roster := make([]RosterEntry, len(s.players))
	for i, p := range s.players {
		roster[i] = RosterEntry{Name: p.Name, Score: p.Score, Host: p.Host}
	}
	return roster
}

// mirrorScoreLocked projects a score change into Redis without blocking the
// room lock on I/O.
func (s *RoomSession) mirrorScoreLocked(player *model.Player) {
	if s.deps.Leaderboard == nil {
		return
	}
	name, score := player.Name, player.Score
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.deps.Leaderboard.UpdateScore(ctx, s.code, name, score); err != nil {
			log.Debug().Err(err).Str("room", s.code).Msg("leaderboard update failed")
		}
	}()
}

func (s *RoomSession) clearLeaderboardLocked() {
	if s.deps.Leaderboard == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.deps.Leaderboard.Clear(ctx, s.code)
	}()
}
