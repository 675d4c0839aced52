package handler

import (
	"encoding/json"
	"net/http"

	"quizstorm/internal/service"
)

// QuestionHandler serves solo-play question generation. Solo games run
// entirely client-side against this endpoint; rooms never touch it.
type QuestionHandler struct {
	questions *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

type generateRequest struct {
	Subject string   `json:"subject"`
	History []string `json:"history,omitempty"`
}

// Generate handles POST /v1/questions
func (h *QuestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
		respondError(w, http.StatusBadRequest, "subject is required")
		return
	}

	question, err := h.questions.Generate(r.Context(), req.Subject, req.History)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, question)
}
