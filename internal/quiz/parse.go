// Package quiz extracts structured trivia questions from the free-form text
// returned by the generation provider. Models drift between output formats,
// so parsing runs a fixed sequence of total detectors: a tagged markup block,
// a JSON object with an options array, a JSON object with an options map
// keyed A..F, and a flat JSON object keyed A..F. The first detector that
// matches wins.
package quiz

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Parsed is the structured result of parsing generator output. AnswerIndex
// is nil when the text declared no recognizable correct answer.
type Parsed struct {
	Question    string
	Options     []string
	AnswerIndex *int
}

// ErrUnparseable is returned when no detector could extract a question with
// at least two options.
var ErrUnparseable = errors.New("no question could be extracted from generator output")

var (
	questionTagRe = regexp.MustCompile(`(?is)<question>\s*(.*?)\s*</question>`)
	optionTagRe   = regexp.MustCompile(`(?is)<option>\s*(.*?)\s*</option>`)
	answerTagRe   = regexp.MustCompile(`(?is)<answer>\s*(.*?)\s*</answer>`)
)

// optionKeys are the tolerated lettered keys, in option order.
var optionKeys = []string{"A", "B", "C", "D", "E", "F"}

// Parse runs the format detectors in order against raw generator output.
func Parse(raw string) (Parsed, error) {
	detectors := []func(string) (Parsed, bool){
		parseTagged,
		parseOptionsArray,
		parseOptionsMap,
		parseFlat,
	}
	for _, detect := range detectors {
		if p, ok := detect(raw); ok {
			return p, nil
		}
	}
	return Parsed{}, ErrUnparseable
}

// parseTagged handles the markup form:
//
//	<question>...</question>
//	<option>...</option> (repeated)
//	<answer>B</answer>
func parseTagged(raw string) (Parsed, bool) {
	qm := questionTagRe.FindStringSubmatch(raw)
	if qm == nil {
		return Parsed{}, false
	}
	var options []string
	for _, om := range optionTagRe.FindAllStringSubmatch(raw, -1) {
		if text := strings.TrimSpace(om[1]); text != "" {
			options = append(options, text)
		}
	}
	if len(options) < 2 {
		return Parsed{}, false
	}
	p := Parsed{Question: strings.TrimSpace(qm[1]), Options: options}
	if am := answerTagRe.FindStringSubmatch(raw); am != nil {
		p.AnswerIndex = resolveAnswer(am[1], options)
	}
	return p, true
}

// jsonShape is the union of the tolerated JSON forms. Options is decoded
// leniently because it may be an array or a lettered map.
type jsonShape struct {
	Question    string          `json:"question"`
	Options     json.RawMessage `json:"options"`
	Answer      json.RawMessage `json:"answer"`
	AnswerIndex json.RawMessage `json:"answerIndex"`
}

func parseOptionsArray(raw string) (Parsed, bool) {
	shape, ok := decodeShape(raw)
	if !ok || shape.Question == "" || shape.Options == nil {
		return Parsed{}, false
	}
	var options []string
	if err := json.Unmarshal(shape.Options, &options); err != nil || len(options) < 2 {
		return Parsed{}, false
	}
	return Parsed{
		Question:    shape.Question,
		Options:     options,
		AnswerIndex: resolveAnswerRaw(shape, options),
	}, true
}

func parseOptionsMap(raw string) (Parsed, bool) {
	shape, ok := decodeShape(raw)
	if !ok || shape.Question == "" || shape.Options == nil {
		return Parsed{}, false
	}
	var lettered map[string]string
	if err := json.Unmarshal(shape.Options, &lettered); err != nil {
		return Parsed{}, false
	}
	options := collectLettered(lettered)
	if len(options) < 2 {
		return Parsed{}, false
	}
	return Parsed{
		Question:    shape.Question,
		Options:     options,
		AnswerIndex: resolveAnswerRaw(shape, options),
	}, true
}

// parseFlat handles {"question": "...", "A": "...", "B": "...", "answer": "A"}.
func parseFlat(raw string) (Parsed, bool) {
	body, ok := extractJSON(raw)
	if !ok {
		return Parsed{}, false
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &flat); err != nil {
		return Parsed{}, false
	}
	var question string
	if qRaw, ok := flat["question"]; ok {
		_ = json.Unmarshal(qRaw, &question)
	}
	if question == "" {
		return Parsed{}, false
	}
	lettered := make(map[string]string)
	for key, val := range flat {
		var text string
		if json.Unmarshal(val, &text) == nil {
			lettered[key] = text
		}
	}
	options := collectLettered(lettered)
	if len(options) < 2 {
		return Parsed{}, false
	}
	p := Parsed{Question: question, Options: options}
	if aRaw, ok := flat["answer"]; ok {
		p.AnswerIndex = resolveAnswerJSON(aRaw, options)
	}
	return p, true
}

func decodeShape(raw string) (jsonShape, bool) {
	body, ok := extractJSON(raw)
	if !ok {
		return jsonShape{}, false
	}
	var shape jsonShape
	if err := json.Unmarshal([]byte(body), &shape); err != nil {
		return jsonShape{}, false
	}
	return shape, true
}

// extractJSON pulls the outermost JSON object out of text that may be
// wrapped in prose or markdown code fences.
func extractJSON(raw string) (string, bool) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

// collectLettered orders a lettered map into an option slice, stopping at
// the first missing letter so A,B,D never yields a phantom C slot.
func collectLettered(lettered map[string]string) []string {
	upper := make(map[string]string, len(lettered))
	for key, val := range lettered {
		upper[strings.ToUpper(strings.TrimSpace(key))] = val
	}
	var options []string
	for _, key := range optionKeys {
		text, ok := upper[key]
		if !ok || strings.TrimSpace(text) == "" {
			break
		}
		options = append(options, strings.TrimSpace(text))
	}
	return options
}

func resolveAnswerRaw(shape jsonShape, options []string) *int {
	if shape.Answer != nil {
		if idx := resolveAnswerJSON(shape.Answer, options); idx != nil {
			return idx
		}
	}
	if shape.AnswerIndex != nil {
		return resolveAnswerJSON(shape.AnswerIndex, options)
	}
	return nil
}

func resolveAnswerJSON(raw json.RawMessage, options []string) *int {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return indexInRange(int(num), options)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return resolveAnswer(str, options)
	}
	return nil
}

// resolveAnswer interprets a declared answer as an index, a letter A..F, or
// the literal text of one of the options.
func resolveAnswer(declared string, options []string) *int {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return nil
	}
	if n, err := strconv.Atoi(declared); err == nil {
		return indexInRange(n, options)
	}
	upper := strings.ToUpper(declared)
	for i, key := range optionKeys {
		if upper == key {
			return indexInRange(i, options)
		}
	}
	for i, opt := range options {
		if strings.EqualFold(declared, opt) {
			return indexInRange(i, options)
		}
	}
	return nil
}

func indexInRange(idx int, options []string) *int {
	if idx < 0 || idx >= len(options) {
		return nil
	}
	return &idx
}
