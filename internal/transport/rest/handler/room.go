package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"quizstorm/internal/cache"
	"quizstorm/internal/service"
)

// RoomHandler serves read-only room lookups
type RoomHandler struct {
	registry    *service.Registry
	leaderboard cache.LeaderboardCache
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(registry *service.Registry, leaderboard cache.LeaderboardCache) *RoomHandler {
	return &RoomHandler{registry: registry, leaderboard: leaderboard}
}

// Get handles GET /v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	sess, ok := h.registry.Get(code)
	if !ok {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, sess.Info())
}

// Leaderboard handles GET /v1/rooms/{code}/leaderboard
func (h *RoomHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		respondError(w, http.StatusServiceUnavailable, "leaderboard not configured")
		return
	}
	code := mux.Vars(r)["code"]
	entries, err := h.leaderboard.GetTop(r.Context(), code, 50)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
