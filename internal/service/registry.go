package service

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"quizstorm/internal/cache"
	"quizstorm/internal/model"
	"quizstorm/internal/repository"
)

// Deps bundles the collaborators shared by every room session. Leaderboard
// and Reports are optional; a nil value disables that projection.
type Deps struct {
	Clock       clockwork.Clock
	Source      QuestionSource
	Broadcaster Broadcaster
	Leaderboard cache.LeaderboardCache
	Reports     repository.GameReportRepo
	Round       time.Duration // how long a question accepts answers
	Grace       time.Duration // post-reveal window before answers are cleared
}

// Registry is the process-wide room table. It is the only structure touched
// by multiple rooms' handlers concurrently; each session serializes its own
// state behind its own lock. The registry is an owned object injected into
// the gateway, with no package-level instance.
type Registry struct {
	deps  Deps
	mu    sync.RWMutex
	rooms map[string]*RoomSession
}

// NewRegistry creates an empty room registry.
func NewRegistry(deps Deps) *Registry {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Round <= 0 {
		deps.Round = 30 * time.Second
	}
	if deps.Grace <= 0 {
		deps.Grace = 3 * time.Second
	}
	return &Registry{
		deps:  deps,
		rooms: make(map[string]*RoomSession),
	}
}

// CreateRoom allocates a room with a fresh unique code. Code collisions are
// retried internally and never surfaced.
func (r *Registry) CreateRoom(mode model.Mode) (*RoomSession, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for attempts := 0; attempts < 10; attempts++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := r.rooms[code]; taken {
			continue
		}
		session := newRoomSession(code, mode, r.deps)
		r.rooms[code] = session
		log.Info().Str("room", code).Str("mode", string(mode)).Msg("room created")
		return session, nil
	}
	return nil, ErrCodeExhausted
}

// Get looks up a room by code, case-insensitively.
func (r *Registry) Get(code string) (*RoomSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.rooms[strings.ToUpper(code)]
	return session, ok
}

// Remove deletes a room from the table. The caller is responsible for having
// shut the session down first.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[strings.ToUpper(code)]; ok {
		delete(r.rooms, strings.ToUpper(code))
		log.Info().Str("room", code).Msg("room deleted")
	}
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// codeChars excludes easily-confused characters, matching what players are
// asked to type from a friend's screen.
const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeLength is the room code length.
const codeLength = 6

func newRoomCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeChars[int(b[i])%len(codeChars)]
	}
	return string(code), nil
}
