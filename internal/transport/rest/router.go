package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"quizstorm/internal/cache"
	"quizstorm/internal/service"
	"quizstorm/internal/transport/rest/handler"
	"quizstorm/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Registry        *service.Registry
	QuestionService *service.QuestionService
	Leaderboard     cache.LeaderboardCache
	WSHandler       *ws.Handler
}

// NewRouter creates the API router. The game itself rides the websocket;
// REST covers lookups, solo play and health.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.Registry, c.Leaderboard)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/rooms/{code}", roomHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/rooms/{code}/leaderboard", roomHandler.Leaderboard).Methods("GET", "OPTIONS")
	v1.HandleFunc("/questions", questionHandler.Generate).Methods("POST", "OPTIONS")
	v1.HandleFunc("/ws", c.WSHandler.ServeWS).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
