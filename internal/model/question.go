package model

// Question is a generated trivia question. Raw is the unmodified generator
// output as broadcast to clients; Text and Options are the parsed view the
// server scores against. CorrectIndex is always a valid index into Options:
// when the generator declared no answer, it defaults to 0 so a reveal can
// always proceed. Callers must treat that default as best effort, not
// verified.
type Question struct {
	Raw          string   `json:"raw"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}
