package quiz

import (
	"fmt"
	"strings"
)

// BuildPrompt produces the generation prompt for one trivia question on the
// given subject. Previously asked question texts are included so the
// provider does not repeat itself across levels.
func BuildPrompt(subject string, asked []string) string {
	var history string
	if len(asked) > 0 {
		history = "\nPreviously asked questions, do not repeat any of them:\n- " +
			strings.Join(asked, "\n- ") + "\n"
	}
	return fmt.Sprintf(`You are a trivia question writer. Write one multiple-choice question about the subject below. Return ONLY valid JSON matching this schema:
{
  "question": "the question text",
  "options": ["option A", "option B", "option C", "option D"],
  "answer": 0
}

Rules:
- exactly 4 options
- "answer" is the zero-based index of the single correct option
- the question must be answerable without additional context

Subject: %s
%s`, subject, history)
}
