package model

import "time"

// PlayerScore is a final score line in a game report.
type PlayerScore struct {
	Name  string `json:"name" bson:"name"`
	Score int    `json:"score" bson:"score"`
}

// GameReport is the archived summary of a finished session. Reports record
// game history only; live room state never touches storage.
type GameReport struct {
	ID            string        `json:"id" bson:"_id,omitempty"`
	Code          string        `json:"code" bson:"code"`
	Mode          Mode          `json:"mode" bson:"mode"`
	Subject       string        `json:"subject" bson:"subject"`
	Outcome       Outcome       `json:"outcome" bson:"outcome"`
	LevelsCleared int           `json:"levelsCleared" bson:"levelsCleared"`
	FinalScores   []PlayerScore `json:"finalScores" bson:"finalScores"`
	FinishedAt    time.Time     `json:"finishedAt" bson:"finishedAt"`
}
