package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"quizstorm/internal/config"
	"quizstorm/internal/model"
	"quizstorm/internal/quiz"
)

// QuestionSource produces one structured trivia question for a subject.
// history carries the texts of previously asked questions so the source can
// avoid repeats. Implementations must bound their own latency; a source that
// stalls counts as failed.
type QuestionSource interface {
	Generate(ctx context.Context, subject string, history []string) (*model.Question, error)
}

// QuestionService generates questions via the Gemini API and extracts a
// structured question from the response text. When no API key is configured
// it falls back to a deterministic offline generator so the server stays
// playable; with a configured key, provider or parse failures are returned
// to the caller instead of being masked.
type QuestionService struct {
	config *config.AIConfig
	client *http.Client
}

// NewQuestionService creates a new question service
func NewQuestionService(cfg *config.AIConfig) *QuestionService {
	return &QuestionService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// Generate requests one question about the subject.
func (s *QuestionService) Generate(ctx context.Context, subject string, history []string) (*model.Question, error) {
	if !s.config.IsEnabled() {
		return offlineQuestion(subject, history), nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.config.TimeoutMS)*time.Millisecond)
	defer cancel()

	prompt := quiz.BuildPrompt(subject, history)
	raw, err := s.callGemini(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	parsed, err := quiz.Parse(raw)
	if err != nil {
		log.Warn().Str("subject", subject).Msg("generator returned unparseable question text")
		return nil, fmt.Errorf("question parse failed: %w", err)
	}

	return buildQuestion(raw, parsed), nil
}

// buildQuestion resolves the parsed result into a scoreable question. A
// missing declared answer defaults to option 0 so the reveal can always
// proceed; that default is best effort, not verified.
func buildQuestion(raw string, parsed quiz.Parsed) *model.Question {
	correct := 0
	if parsed.AnswerIndex != nil {
		correct = *parsed.AnswerIndex
	}
	return &model.Question{
		Raw:          raw,
		Text:         parsed.Question,
		Options:      parsed.Options,
		CorrectIndex: correct,
	}
}

// callGemini makes a request to the Gemini API
func (s *QuestionService) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation provider returned status %d", resp.StatusCode)
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from generation provider")
}

// offlineQuestion produces a deterministic arithmetic question in the tagged
// markup format, so unconfigured deployments still exercise the full
// broadcast-and-parse path.
func offlineQuestion(subject string, history []string) *model.Question {
	n := len(history)
	a, b := 3+n, 4+2*n
	sum := a + b
	correct := n % 4

	options := make([]string, 4)
	var optionTags bytes.Buffer
	for i := range options {
		options[i] = fmt.Sprintf("%d", sum+i-correct)
		fmt.Fprintf(&optionTags, "<option>%s</option>\n", options[i])
	}

	text := fmt.Sprintf("(%s warm-up) What is %d + %d?", subject, a, b)
	raw := fmt.Sprintf("<question>%s</question>\n%s<answer>%d</answer>", text, optionTags.String(), correct)
	return &model.Question{
		Raw:          raw,
		Text:         text,
		Options:      options,
		CorrectIndex: correct,
	}
}
